package sink

import (
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"

	"tagpatch/host/reader"
)

// Measurement is the CBOR payload published for each sample
type Measurement struct {
	Index     int     `cbor:"1,keyasint"`
	ElapsedMs int64   `cbor:"2,keyasint"`
	Raw       uint16  `cbor:"3,keyasint"`
	Gain      int     `cbor:"4,keyasint"`
	Voltage   float64 `cbor:"5,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// EncodeMeasurement converts a sample to its CBOR payload
func EncodeMeasurement(s reader.Sample) ([]byte, error) {
	return encMode.Marshal(Measurement{
		Index:     s.Index,
		ElapsedMs: s.Elapsed.Milliseconds(),
		Raw:       s.Raw,
		Gain:      s.Gain,
		Voltage:   s.Voltage,
	})
}

// DecodeMeasurement parses a published payload
func DecodeMeasurement(data []byte) (Measurement, error) {
	var m Measurement
	if err := decMode.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("sink: failed to decode measurement: %w", err)
	}
	return m, nil
}

// Publisher is the part of paho.Client the sink needs
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// PublishTimeout bounds the wait for a QoS 1/2 acknowledgement
const PublishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("sink: publish not acknowledged")

// MQTT publishes samples to a topic
type MQTT struct {
	pub   Publisher
	topic string
	qos   byte
}

// NewMQTT creates an MQTT sink on an already connected publisher
func NewMQTT(pub Publisher, topic string, qos byte) *MQTT {
	return &MQTT{pub: pub, topic: topic, qos: qos}
}

// Write implements reader.Sink
func (m *MQTT) Write(s reader.Sample) error {
	payload, err := EncodeMeasurement(s)
	if err != nil {
		return err
	}
	glog.V(2).Infof("PUB %q %d bytes", m.topic, len(payload))
	token := m.pub.Publish(m.topic, m.qos, false, payload)
	if m.qos == 0 {
		return nil
	}
	if !token.WaitTimeout(PublishTimeout) {
		return ErrPublishTimeout
	}
	return token.Error()
}

// DialMQTT connects to a broker
func DialMQTT(broker, clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true)
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		glog.Warningf("connection lost: %v", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(PublishTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	glog.Info("connected")
	return client, nil
}
