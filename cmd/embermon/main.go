// Command embermon watches a board's serial port for fault reports and
// prints them, optionally forwarding each one to an MQTT broker.
package main

import (
	"flag"
	"fmt"
	"os"

	"ember/internal/buildinfo"

	"github.com/golang/glog"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

func main() {
	var (
		port    string
		baud    int
		list    bool
		broker  string
		topic   string
		version bool
	)
	flag.StringVar(&port, "port", "", "Serial port (default: first found).")
	flag.IntVar(&baud, "baud", 115200, "Baud rate.")
	flag.BoolVar(&list, "list", false, "List serial ports and exit.")
	flag.StringVar(&broker, "mqtt", "", "Broker URL to publish reports to, e.g. mqtt://localhost:1883/lab.")
	flag.StringVar(&topic, "topic", "ember/faults", "Topic under the broker URL's path prefix.")
	flag.BoolVar(&version, "version", false, "Print the version and exit.")
	flag.Parse()
	defer glog.Flush()

	if version {
		fmt.Println(buildinfo.Line("embermon"))
		return
	}

	out := colorable.NewColorableStdout()
	if list {
		if err := listPorts(out); err != nil {
			glog.Errorf("%v", err)
			glog.Flush()
			os.Exit(1)
		}
		return
	}

	var pub Publisher
	if broker != "" {
		p, err := newMQTTPublisher(broker, topic)
		if err != nil {
			glog.Errorf("%v", err)
			glog.Flush()
			os.Exit(1)
		}
		defer p.Close()
		pub = p
	}

	sp, name, err := openPort(port, baud)
	if err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
	defer sp.Close()
	glog.Infof("listening on %s at %d baud", name, baud)

	m := newMonitor(out, pub, isatty.IsTerminal(os.Stdout.Fd()))
	if err := m.run(sp); err != nil {
		glog.Errorf("%s: %v", name, err)
	}
}
