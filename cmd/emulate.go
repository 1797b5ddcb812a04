package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/oleksandr-ch/measurement-chain/internal/pkg/ledger"
	"github.com/oleksandr-ch/measurement-chain/internal/pkg/model"
)

type emulatedSensor struct {
	SensorID int64
	Location string
	Unit     string
	BaseTemp float64
	Variance float64
}

// the default fleet the emulator drives
var emulatedSensors = []emulatedSensor{
	{SensorID: 1, Location: "Kyiv", Unit: "C", BaseTemp: 22.0, Variance: 2.0},
	{SensorID: 2, Location: "Lviv", Unit: "C", BaseTemp: 18.0, Variance: 3.0},
	{SensorID: 3, Location: "Odesa", Unit: "C", BaseTemp: 25.0, Variance: 1.5},
}

// EmulateCommand posts randomized readings to a running service, for demos
// and manual chain inspection.
func EmulateCommand(ctx *cli.Context) error {
	apiURL := ctx.String("api-url")
	cycles := ctx.Int("cycles")
	delay := ctx.Duration("delay")

	client := &http.Client{Timeout: 10 * time.Second}

	for cycle := 1; cycle <= cycles; cycle++ {
		for _, sensor := range emulatedSensors {
			payload := generateReading(sensor)
			m, err := postReading(client, apiURL, payload)
			if err != nil {
				fmt.Printf("sensor %d: %v\n", sensor.SensorID, err)
				continue
			}
			fmt.Printf("sensor %d (%s) sent %v°%s hash=%s...\n",
				sensor.SensorID, sensor.Location, m.Value, sensor.Unit, m.DataHash[:8])
		}
		if cycle < cycles {
			select {
			case <-ctx.Context.Done():
				return ctx.Context.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func generateReading(sensor emulatedSensor) model.CreateMeasurement {
	span := 2 * sensor.Variance
	value := sensor.BaseTemp - sensor.Variance + rand.Float64()*span
	value = float64(int(value*100)) / 100 // two decimal places, like a real probe

	return model.CreateMeasurement{
		SensorID: sensor.SensorID,
		Value:    &value,
		Unit:     sensor.Unit,
		Metadata: map[string]any{"location": sensor.Location},
	}
}

func postReading(client *http.Client, apiURL string, payload model.CreateMeasurement) (*model.Measurement, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	res, err := client.Post(apiURL+"/measurements/", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", res.StatusCode, msg)
	}

	var m model.Measurement
	if err := json.NewDecoder(res.Body).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GenerateKeyCommand writes a fresh PEM submitting key for the ledger
// gateway to the given path.
func GenerateKeyCommand(ctx *cli.Context) error {
	signer, err := ledger.GenerateSigner()
	if err != nil {
		return err
	}
	data, err := signer.MarshalPem()
	if err != nil {
		return err
	}
	path := ctx.String("out")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("wrote key for account %s to %s\n", signer.PublicKey(), path)
	return nil
}
