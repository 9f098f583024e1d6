package cmd

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/locatechs/gosvl"
	"github.com/locatechs/gosvl/pkg/bar"
	"github.com/locatechs/gosvl/pkg/fwimage"
)

var remote = color.New(color.FgHiBlue).SprintfFunc()

var flashCmd = &cobra.Command{
	Use:   "flash <firmware file>",
	Short: "upload firmware over the SVL bootloader",
	Long:  `Reboots the device into its bootloader and streams the given .bin or .hex image to it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		image, err := fwimage.Load(filename)
		if err != nil {
			return err
		}
		log.Infof("loaded %d bytes from %s", len(image), filepath.Base(filename))

		portName, baudrate, err := getSerialOpts(cmd)
		if err != nil {
			return err
		}

		log.Infof("upload %s via %s at %d baud?", filepath.Base(filename), portName, baudrate)
		if !yesNo("Start upload") {
			return nil
		}

		p, err := openPort(portName, baudrate)
		if err != nil {
			return err
		}
		defer p.Close()

		b := bar.New(len(image), "uploading")
		cfg := &gosvl.Config{
			BaudRate: baudrate,
			OnMessage: func(msg string) {
				log.Debug(msg)
			},
			OnRemoteMessage: func(msg string) {
				log.Info(remote("remote: %s", msg))
			},
			OnProgress: func(sent, total int) {
				n := sent * gosvl.FrameSize
				if n > len(image) {
					n = len(image)
				}
				b.Set(n)
			},
		}

		sess := gosvl.New(p, cfg)

		var res *gosvl.Result
		done := make(chan struct{})
		errg, gctx := errgroup.WithContext(cmd.Context())
		errg.Go(func() error {
			defer close(done)
			r, err := sess.Run(gctx, image)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
		errg.Go(func() error {
			// The session has no mid-read interrupt; closing the port on
			// cancel surfaces as a read failure and unwinds the loop.
			select {
			case <-gctx.Done():
				p.Close()
			case <-done:
			}
			return nil
		})
		if err := errg.Wait(); err != nil {
			return err
		}
		b.Finish()

		log.Infof("uploaded %d frames, %.2f bytes/sec (bootloader v%d)",
			res.Frames, res.BytesPerSecond, res.BootloaderVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)
}
