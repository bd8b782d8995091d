/*Package tello provides an unofficial, easy-to-use, standalone API for the Ryze Tello® drone,
speaking the drone's binary UDP protocol (the one the official app uses) rather than the text SDK.

Disclaimer

Tello is a registered trademark of Ryze Tech.  The author(s) of this package is/are in no way affiliated with Ryze, DJI, or Intel.
The package has been developed by gathering together information from a variety of sources on the Internet
(especially the generous contributors at  https://tellopilots.com), and by examining data packets sent to/from the Tello.
The package will probably be extended as more knowledge of the drone's protocol is obtained.

Use this package at your own risk.  The author(s) is/are in no way responsible for any damage caused either to or by the
drone when using this software.

Features

The following features have been implemented...
  * Stick-based flight control, ie. for joystick, game-, or flight-controller, via RCState
  * Drone built-in flight commands, eg. TakeOff(), PalmLand(), Flip()
  * Macro-level flight control, eg. Forward(), Up()
  * Decoded telemetry, the latest sample of each kind is kept in DroneMeta
  * Dead-reckoned position from the commands issued, see Odometry
  * Video stream support, complete H.264 frames are reassembled from the drone's sub-packets
  * Picture taking

Polling

Nothing happens in the background.  After New and Connect the application must call Poll at least
20 times per second (35 for smooth video).  Each call sends the stick heartbeat when it is due, requests
a key frame every second while video is enabled, answers the drone's log header and date/time requests,
and returns at most one Message: a *Package of telemetry, a ConnAck, an UnknownCommand or a video *Frame.

	drone, err := tello.New(tello.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer drone.Close()
	drone.Connect(11111)
	for {
		switch msg := drone.Poll().(type) {
		case *tello.Frame:
			// msg.Data is an H.264 access unit
		case *tello.Package:
			// telemetry, also available from drone.Meta
		}
		time.Sleep(time.Second / 35)
	}

Funcs vs. Channels

If you prefer channels, Stream runs the poll loop in a Goroutine and delivers the same messages on a channel.
A Tello has only one stream; unconsumed messages are dropped rather than delaying the heartbeat.

Fire and Forget

Commands return an error only if the datagram could not be sent.  The drone does not acknowledge
most commands, so if it matters, watch the telemetry and repeat the command.

*/
package tello
