// Package gosvl implements the host side of the SVL serial bootloader
// protocol used to flash application firmware onto Artemis based devices
// such as the LocaSafe UT221.
//
// The protocol is strictly request/response over a half duplex serial link
// with no flow control: the host triggers a reboot into the bootloader,
// trains the baud rate with a single byte, and then answers the device's
// frame requests until the whole image has been transferred. A Session ties
// the pieces together and retries the full sequence on failure.
package gosvl
