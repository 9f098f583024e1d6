package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/locatechs/gosvl/cmd/svltool/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ctrl-c cancels the running command; a second timer force-exits if an
	// upload refuses to unwind.
	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt)
	go func() {
		s := <-quitChan
		log.Printf("got %v, exiting", s)
		cancel()
		<-time.After(30 * time.Second)
		log.Fatal("took too long to shutdown, forcefully exiting")
	}()

	cmd.Execute(ctx)
}
