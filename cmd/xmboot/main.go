// Command xmboot talks to devices running the XMODEM firmware updater.
//
// It sends application images, asks a running application to hand control
// back to the updater, and can emulate a device on a serial line for
// testing host tooling without hardware.
package main

func main() {
	Execute()
}
