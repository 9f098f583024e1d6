package gosvl

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go"
)

// Protocol bounds. Frame size is fixed by the bootloader's receive buffer
// and is not tunable.
const (
	FrameSize = 512 * 4

	// KnownVersion is the bootloader version this uploader was built
	// against. Older bootloaders still work but trigger an advisory.
	KnownVersion = 6

	resendMax      = 4
	setupPacketMax = 10
	numTries       = 3
	baseBaudRate   = 115200
)

var (
	// upgradeTrigger asks the running application to reboot into the
	// bootloader.
	upgradeTrigger = []byte("Upgrade")
	// baudDetectByte lets the freshly rebooted bootloader measure the
	// host's bit rate.
	baudDetectByte = []byte{'U'}
)

// Config carries the tunables and event sinks for an upload Session.
// Zero values get sensible defaults in New.
type Config struct {
	// BaudRate the port was opened at. Only used to decide whether a
	// failed upload should suggest retrying at a slower rate.
	BaudRate int

	// BootloaderWait is the settle period between sending the upgrade
	// trigger and the device being back up in its bootloader. This is not
	// a timeout to race against; the device is gone for the duration.
	BootloaderWait time.Duration

	OnMessage       func(string)          // local status lines
	OnRemoteMessage func(string)          // MSG payloads from the device
	OnProgress      func(sent, total int) // frames sent so far
}

// Result describes a completed upload.
type Result struct {
	BytesPerSecond    float64
	BootloaderVersion int // -1 if never learned
	Frames            int
}

// Session drives one upload: Setup (baud/version negotiation) followed by
// Bootload (frame transfer), retried as a whole up to three times. A Session
// owns its Port for the duration and must not be shared between goroutines.
type Session struct {
	port Port
	cfg  *Config

	installedVersion int
	currentFrame     int
	totalFrames      int
	resendCount      int
	doneSent         bool
}

// New creates a Session over an opened port. cfg may be nil.
func New(port Port, cfg *Config) *Session {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = baseBaudRate
	}
	if cfg.BootloaderWait == 0 {
		cfg.BootloaderWait = 5 * time.Second
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(msg string) {
			log.Println(msg)
		}
	}
	if cfg.OnRemoteMessage == nil {
		cfg.OnRemoteMessage = func(msg string) {
			log.Println("remote:", msg)
		}
	}
	if cfg.OnProgress == nil {
		cfg.OnProgress = func(sent, total int) {}
	}
	return &Session{
		port:             port,
		cfg:              cfg,
		installedVersion: -1,
	}
}

// BootloaderVersion returns the version learned during Setup, or -1.
func (s *Session) BootloaderVersion() int {
	return s.installedVersion
}

// Run uploads image, retrying the whole Setup+Bootload sequence on failure.
// It returns the terminal result of the final attempt.
func (s *Session) Run(ctx context.Context, image []byte) (*Result, error) {
	// Surfaced immediately, never retried.
	if s.port == nil {
		return nil, ErrNoPort
	}
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	var res *Result
	err := retry.Do(
		func() error {
			s.reset()
			if err := s.setup(ctx); err != nil {
				return err
			}
			r, err := s.bootload(ctx, image)
			if err != nil {
				s.cfg.OnMessage("upload failed!")
				if s.cfg.BaudRate > baseBaudRate {
					s.cfg.OnMessage("please try a slower baud rate")
				}
				return err
			}
			res = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(numTries),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.cfg.OnMessage(fmt.Sprintf("attempt %d failed: %v, restarting from setup", n+1, err))
		}),
	)

	if s.installedVersion >= 0 && s.installedVersion < KnownVersion {
		s.cfg.OnMessage(fmt.Sprintf("bootloader v%d is out of date, please update it", s.installedVersion))
	}
	if err != nil {
		return nil, err
	}
	res.BootloaderVersion = s.installedVersion
	return res, nil
}

// reset clears per-attempt transfer state. The learned bootloader version is
// kept for the post-session advisory.
func (s *Session) reset() {
	s.currentFrame = 0
	s.totalFrames = 0
	s.resendCount = 0
	s.doneSent = false
}

// setup triggers the reboot into the bootloader, trains the baud rate and
// waits for the version packet. On success the device is committed to
// bootload mode and will not leave it.
func (s *Session) setup(ctx context.Context) error {
	s.cfg.OnMessage("phase: setup")

	if _, err := s.port.Write(upgradeTrigger); err != nil {
		return fmt.Errorf("failed to send upgrade trigger: %w", err)
	}
	s.cfg.OnMessage("sent upgrade trigger, waiting for device to enter bootloader")

	select {
	case <-time.After(s.cfg.BootloaderWait):
	case <-ctx.Done():
		return ctx.Err()
	}

	// Drop the serial blip the device emits while restarting.
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("failed to clear input buffer: %w", err)
	}
	s.cfg.OnMessage("cleared startup blip")

	if _, err := s.port.Write(baudDetectByte); err != nil {
		return fmt.Errorf("failed to send baud detect byte: %w", err)
	}
	s.cfg.OnMessage("sent baud detect byte")

	// The version packet must arrive within the first 10 packets of
	// traffic; anything past that means the device did not hear us.
	for seen := 0; ; {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, err := ReadPacket(s.port)
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		if p.TimedOut {
			s.cfg.OnMessage("timeout waiting for version packet")
			return ErrTimeout
		}
		if p.CRC != 0 {
			s.cfg.OnMessage("crc error on received packet")
			return ErrCRC
		}

		switch p.Command {
		case CmdVersion:
			s.installedVersion = versionFromBytes(p.Data)
			s.cfg.OnMessage(fmt.Sprintf("got SVL bootloader version: %d", s.installedVersion))
			s.cfg.OnMessage("sending 'enter bootloader' command")
			if err := WritePacket(s.port, CmdBootload, nil); err != nil {
				return fmt.Errorf("failed to send bootload command: %w", err)
			}
			return nil
		case CmdMessage:
			s.cfg.OnRemoteMessage(string(p.Data))
		}

		seen++
		if seen > setupPacketMax {
			s.cfg.OnMessage("no version packet received in time")
			return ErrNoVersion
		}
	}
}

// bootload streams the image as frames, driven entirely by the device's
// NEXT/RETRY requests. The device asks, the host answers.
func (s *Session) bootload(ctx context.Context, image []byte) (*Result, error) {
	start := time.Now()
	s.totalFrames = (len(image) + FrameSize - 1) / FrameSize

	s.cfg.OnMessage("phase: bootload")
	s.cfg.OnMessage(fmt.Sprintf("sending %d bytes in %d frames", len(image), s.totalFrames))

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := ReadPacket(s.port)
		if err != nil {
			return nil, fmt.Errorf("failed to read packet: %w", err)
		}

		if !p.TimedOut && p.CRC == 0 {
			if p.Command == CmdMessage {
				s.cfg.OnRemoteMessage(string(p.Data))
				continue
			}
			if p.Command == CmdDone {
				// Device accepted the close-out.
				break
			}
		}

		if s.doneSent {
			// Only the device's DONE matters now.
			continue
		}

		if p.TimedOut {
			s.cfg.OnMessage("error receiving packet")
			return nil, ErrTimeout
		}
		if p.CRC != 0 {
			s.cfg.OnMessage("crc error on received packet")
			return nil, ErrCRC
		}

		switch p.Command {
		case CmdNext:
			s.currentFrame++
			s.resendCount = 0
		case CmdRetry:
			s.cfg.OnMessage("device requested a resend")
			s.resendCount++
			if s.resendCount >= resendMax {
				s.cfg.OnMessage("too many resend requests for the same frame")
				return nil, ErrRetryBudget
			}
		default:
			err := &UnexpectedCommandError{Command: p.Command, Phase: "bootload"}
			s.cfg.OnMessage(err.Error())
			return nil, err
		}

		if s.currentFrame <= s.totalFrames {
			frame := frameSlice(image, s.currentFrame)
			s.cfg.OnMessage(fmt.Sprintf("sending frame %d/%d, %d bytes", s.currentFrame, s.totalFrames, len(frame)))
			if err := WritePacket(s.port, CmdFrame, frame); err != nil {
				return nil, fmt.Errorf("failed to send frame: %w", err)
			}
			s.cfg.OnProgress(s.currentFrame, s.totalFrames)
		} else {
			if err := WritePacket(s.port, CmdDone, nil); err != nil {
				return nil, fmt.Errorf("failed to send done: %w", err)
			}
			s.doneSent = true
		}
	}

	elapsed := time.Since(start).Seconds()
	bps := float64(len(image)) / elapsed
	s.cfg.OnMessage("upload complete!")
	s.cfg.OnMessage(fmt.Sprintf("nominal bootload %.2f bytes/sec", bps))

	return &Result{
		BytesPerSecond:    bps,
		BootloaderVersion: s.installedVersion,
		Frames:            s.totalFrames,
	}, nil
}

// frameSlice returns the 1-indexed frame of the image, the last one
// truncated to the remaining bytes. A RETRY before the first NEXT leaves the
// counter at 0, which maps to an empty frame.
func frameSlice(image []byte, index int) []byte {
	if index < 1 {
		return nil
	}
	offset := (index - 1) * FrameSize
	end := offset + FrameSize
	if end > len(image) {
		end = len(image)
	}
	return image[offset:end]
}

// versionFromBytes interprets the VER payload as a big-endian unsigned
// integer of whatever width the bootloader sent.
func versionFromBytes(data []byte) int {
	v := 0
	for _, b := range data {
		v = v<<8 | int(b)
	}
	return v
}
