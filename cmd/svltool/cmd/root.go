package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:          "svltool",
	Short:        "LocaSafe UT221 SVL firmware uploader",
	Long:         `Uploads application firmware to Artemis based boards over the SVL serial bootloader.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

const (
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagDebug    = "debug"
)

func init() {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagPort, "p", "*", "com-port, * = select interactively")
	pf.IntP(flagBaudrate, "b", 115200, "baudrate (115200, 460800 or 921600)")
	pf.BoolP(flagDebug, "d", false, "debug mode")
}

func getSerialOpts(cmd *cobra.Command) (string, int, error) {
	port, err := cmd.Flags().GetString(flagPort)
	if err != nil {
		return "", 0, err
	}
	baudrate, err := cmd.Flags().GetInt(flagBaudrate)
	if err != nil {
		return "", 0, err
	}
	if port == "*" {
		port, err = selectPort()
		if err != nil {
			return "", 0, err
		}
	}
	return port, baudrate, nil
}

func selectPort() (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", fmt.Errorf("failed to list serial ports: %w", err)
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}
	prompt := promptui.Select{
		Label:    "Select com-port",
		HideHelp: true,
		Items:    ports,
	}
	_, selected, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	return selected, nil
}

// openPort opens the com-port 8N1 with the 1 second read timeout the SVL
// protocol is specified against.
func openPort(portName string, baudrate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open com port %q : %v", portName, err)
	}
	if err := p.SetReadTimeout(1 * time.Second); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func yesNo(label string) bool {
	prompt := promptui.Select{
		Label:    label + " [Yes/No]",
		HideHelp: true,
		Items:    []string{"Yes", "No"},
	}
	_, result, err := prompt.Run()
	if err != nil {
		log.Fatalf("prompt failed: %v", err)
	}
	return result == "Yes"
}
