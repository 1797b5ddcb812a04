package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL      string
	MigrationsFolder string
	ListenAddr       string
	APISecret        string
	VerifySchedule   string
	LogLevel         string

	LedgerCfg *LedgerConfig
	MqttCfg   *MqttConfig
}

// LedgerConfig points at the external audit ledger gateway. Both fields
// empty disables submission entirely; the local chain still works.
type LedgerConfig struct {
	GatewayURL string `env:"LEDGER_GATEWAY_URL"`
	KeyFile    string `env:"LEDGER_KEY_FILE"`
}

// MqttConfig enables the MQTT ingest path when Host is set.
type MqttConfig struct {
	Host     string `env:"MQTT_HOST"`
	Username string `env:"MQTT_USER"`
	Password string `env:"MQTT_PASS"`
	Topic    string `env:"MQTT_TOPIC" envDefault:"sensors/measurements"`
	ClientID string `env:"MQTT_CLIENT_ID" envDefault:"measurement-chain"`
}

// FromEnv fills the env-only sections (credentials and endpoints that should
// not travel through CLI flags).
func FromEnv() (*LedgerConfig, *MqttConfig, error) {
	ledgerCfg := &LedgerConfig{}
	if err := env.Parse(ledgerCfg); err != nil {
		return nil, nil, err
	}
	mqttCfg := &MqttConfig{}
	if err := env.Parse(mqttCfg); err != nil {
		return nil, nil, err
	}
	return ledgerCfg, mqttCfg, nil
}
