package main

import (
	"fmt"
	"net"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/codecrafters-io/blueis-go/monitor"
	"github.com/codecrafters-io/blueis-go/server"
	"github.com/codecrafters-io/blueis-go/store"
)

// maxCommandLogSize bounds the monitor bus backlog; monitoring clients
// slower than the command stream lose the oldest entries.
const maxCommandLogSize = 1000

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: blueis-go host:port database.file")
		os.Exit(1)
	}

	addr, databasePath := os.Args[1], os.Args[2]

	st, err := store.Open(databasePath)
	if err != nil {
		logrus.WithError(err).WithField("database", databasePath).Fatal("cannot open database")
	}
	if err := st.Setup(); err != nil {
		logrus.WithError(err).WithField("database", databasePath).Fatal("cannot initialise database")
	}

	notifier := store.NewPushNotifier()
	bus := monitor.New(maxCommandLogSize)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logrus.WithError(err).WithField("addr", addr).Fatal("cannot bind")
	}

	logrus.WithFields(logrus.Fields{"addr": addr, "database": databasePath}).Info("listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			logrus.WithError(err).Error("accept failed")
			continue
		}

		logrus.WithField("remote", conn.RemoteAddr().String()).Debug("client connected")
		go server.New(conn, st, notifier, bus).Run()
	}
}
