package main

import (
	"context"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/kelmer/godsiot"
)

var mqttClient mqtt.Client

func mqttMessageHandler(client mqtt.Client, msg mqtt.Message) {
	log.Debug("mqtt messsage received: ", msg.Topic())

	ts := strings.Split(msg.Topic(), "/")
	if len(ts) != 3 || ts[0] != "dsiot" || ts[2] != "set" {
		log.Error("unexpected topic: ", msg.Topic())
		return
	}

	key := ts[1]
	switch key {
	case "mode", "stemp", "f_rate", "f_dir":
	default:
		log.Error("unknown setting: ", key)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	if err := br.apply(ctx, map[string]string{key: string(msg.Payload())}); err != nil {
		log.Errorf("failed to apply %s: %v", key, err)
		return
	}
	publishState(br.snapshot())
}

func connectMqtt(url string, password string) {
	co := mqtt.NewClientOptions()
	co.AddBroker(url)
	if password != "" {
		co.SetPassword(password)
	}
	co.SetClientID("dsiotd-" + uuid.NewString()[:8])

	cl := mqtt.NewClient(co)
	if t := cl.Connect(); t.Wait() && t.Error() != nil {
		log.Error("unable to connect to mqtt broker: ", t.Error())
		return
	}
	log.Info("connected to mqtt broker: ", url)

	if t := cl.Subscribe("dsiot/+/set", 0, mqttMessageHandler); t.Wait() && t.Error() != nil {
		log.Error("unable to subscribe to commands: ", t.Error())
	}

	mqttClient = cl
}

func publishState(st godsiot.State) {
	if mqttClient == nil {
		return
	}

	pub := func(field, value string) {
		mqttClient.Publish("dsiot/"+field, 0, true, value)
	}

	pub("power", strconv.FormatBool(st.Power))
	pub("mode", st.Mode)
	pub("insideTemp", strconv.FormatFloat(st.InsideTemp, 'f', 1, 64))
	if st.OutsideTemp != nil {
		pub("outsideTemp", strconv.FormatFloat(*st.OutsideTemp, 'f', 1, 64))
	}
	if st.Humidity != nil {
		pub("humidity", strconv.Itoa(*st.Humidity))
	}
	if st.TargetTemp != nil {
		pub("targetTemp", strconv.FormatFloat(*st.TargetTemp, 'f', 1, 64))
	}
	pub("fanRate", st.FanRate)
	pub("fanDirection", st.SwingMode)
	if st.TodayRuntime != "" {
		pub("todayRuntime", st.TodayRuntime)
	}
}
