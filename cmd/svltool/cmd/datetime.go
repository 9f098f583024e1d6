package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/locatechs/gosvl"
)

var datetimeCmd = &cobra.Command{
	Use:   "datetime",
	Short: "set the device date/time from the host clock",
	Long:  `Sends a DateTime line to the running application. The device must not be in its bootloader.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		portName, baudrate, err := getSerialOpts(cmd)
		if err != nil {
			return err
		}
		p, err := openPort(portName, baudrate)
		if err != nil {
			return err
		}
		defer p.Close()

		now := time.Now()
		if err := gosvl.SendDateTime(p, now); err != nil {
			return err
		}
		log.Infof("updated remote date/time to %s", now.Format("2006-01-02 15:04:05"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datetimeCmd)
}
