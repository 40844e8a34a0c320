package config

type DBDriver string

const (
	DBDriverMSSQL DBDriver = "mssql"
)

type DBConfig struct {
	Driver   DBDriver `yaml:"driver"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	User     string   `yaml:"user"`
	Database string   `yaml:"database"`
}

type ScriptConfig struct {
	// Separator is the batch separator line; empty means the default "GO".
	Separator string `yaml:"separator"`
	// TimeoutSeconds bounds a single script invocation.
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	// MaxRows caps the rows fetched per invocation; zero means no cap.
	MaxRows int `yaml:"maxRows"`
}

type Config struct {
	APIListen   string       `yaml:"apiListen"`
	BearerToken string       `yaml:"bearerToken"`
	Debug       bool         `yaml:"debug"`
	LogRequests bool         `yaml:"logRequests"`
	DB          DBConfig     `yaml:"db"`
	Script      ScriptConfig `yaml:"script"`
}

func Default() Config {
	return Config{
		APIListen: "127.0.0.1:8080",
		DB: DBConfig{
			Driver:   DBDriverMSSQL,
			Host:     "localhost",
			Port:     1433,
			User:     "",
			Database: "master",
		},
		Script: ScriptConfig{
			Separator:      "GO",
			TimeoutSeconds: 30,
			MaxRows:        10000,
		},
	}
}
