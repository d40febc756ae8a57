package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kelmer/godsiot"
)

const callTimeout = 30 * time.Second

// bridge serializes all access to the device handle; the library expects one
// caller at a time per instance.
type bridge struct {
	mu     sync.Mutex
	device *godsiot.Device
}

func (b *bridge) refresh(ctx context.Context) (godsiot.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.device.UpdateStatus(ctx); err != nil {
		return godsiot.State{}, err
	}
	return b.device.State(), nil
}

func (b *bridge) apply(ctx context.Context, settings map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.Set(ctx, settings)
}

func (b *bridge) snapshot() godsiot.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.State()
}

func (b *bridge) adjustment() *godsiot.TempAdjustment {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device.LastTempAdjustment()
}

var br *bridge

// logrusAdapter feeds the library's logging into the daemon log, turning its
// key/value pairs into logrus fields.
type logrusAdapter struct{}

func kvFields(args []any) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	return fields
}

func (logrusAdapter) Debug(msg string, args ...any) { log.WithFields(kvFields(args)).Debug(msg) }
func (logrusAdapter) Info(msg string, args ...any)  { log.WithFields(kvFields(args)).Info(msg) }
func (logrusAdapter) Warn(msg string, args ...any)  { log.WithFields(kvFields(args)).Warn(msg) }
func (logrusAdapter) Error(msg string, args ...any) { log.WithFields(kvFields(args)).Error(msg) }

func statePoller(interval time.Duration) {
	for {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		st, err := br.refresh(ctx)
		cancel()
		if err != nil {
			log.Error("status refresh failed: ", err)
		} else {
			publishState(st)
		}

		time.Sleep(interval)
	}
}

func main() {
	deviceIP := flag.String("device", "", "IP address of the air conditioner")
	httpPort := flag.Int("httpport", 8080, "HTTP port to listen on")
	mqttURL := flag.String("mqtt", "", "MQTT broker url, e.g. tcp://host:1883")
	mqttPass := flag.String("mqttpass", "", "MQTT broker password")
	interval := flag.Int("interval", 30, "status poll interval in seconds")
	doDebugLog := flag.Bool("debug", false, "enable debug log level")

	flag.Parse()

	if len(*deviceIP) == 0 {
		fmt.Print("must provide device\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *doDebugLog {
		log.SetLevel(log.DebugLevel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	device, err := godsiot.Connect(ctx, *deviceIP, godsiot.WithLogger(logrusAdapter{}))
	cancel()
	if err != nil {
		log.Fatal("unable to connect to device: ", err)
	}
	log.Infof("connected to %s (model %s)", device.MAC(), device.Model())

	br = &bridge{device: device}

	if *mqttURL != "" {
		connectMqtt(*mqttURL, *mqttPass)
	}

	go statePoller(time.Duration(*interval) * time.Second)

	webserver(*httpPort)
}
