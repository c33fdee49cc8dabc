package config

import (
	"bytes"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/haakonRefsvik/VA-student-performance/helpers"
	"github.com/haakonRefsvik/VA-student-performance/schema"
)

// EnvPrefix prefixes environment overrides: VADASH_SERVER_ADDR=:9000.
const EnvPrefix = "VADASH"

type Cfg struct {
	Dataset   Dataset          `mapstructure:"dataset"`
	Dashboard Dashboard        `mapstructure:"dashboard"`
	Logger    helpers.Logger   `mapstructure:"logger"`
	Server    Server           `mapstructure:"server"`
	Metrics   Metrics          `mapstructure:"metrics"`
	Cache     Cache            `mapstructure:"cache"`
	Schema    schema.Overrides `mapstructure:"schema"`
}

type Dataset struct {
	Path         string `mapstructure:"path"`
	EncodeBinary bool   `mapstructure:"encode_binary"` // apply helpers.StudentEncodings
}

// Dashboard names a built-in variant or carries an inline layout.
type Dashboard struct {
	Variant string            `mapstructure:"variant"`
	Inline  *schema.Dashboard `mapstructure:"inline"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	EventsPerSecond float64       `mapstructure:"events_per_second"`
	Burst           int           `mapstructure:"burst"`
	Gzip            bool          `mapstructure:"gzip"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Metrics struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

type Cache struct {
	Size uint64        `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

var defaultConfig = []byte(`
{
	"dataset": {
		"path": "student-mat.csv",
		"encode_binary": true
	},

	"dashboard": {
		"variant": "system"
	},

	"logger": {
		"level": "INFO",
		"format": "TEXT",
		"disable_timestamp": false
	},

	"server": {
		"addr": ":8050",
		"events_per_second": 50,
		"burst": 20,
		"gzip": true,
		"shutdown_timeout": "5s"
	},

	"metrics": {
		"enabled": true,
		"namespace": "vadash"
	},

	"cache": {
		"size": 64,
		"ttl": "10m"
	}
}
`)

// Load reads the configuration. Defaults are always merged first; the file
// at path (or ./vadash.{json,yaml} and ./configs/ when path is empty)
// overrides them, and VADASH_* environment variables override both.
func Load(path string, log *logrus.Logger) (Cfg, error) {
	var configs Cfg
	v := viper.New()

	if err := setDefault(v); err != nil {
		log.Errorln("Error using default configs ⛔")
		return configs, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vadash")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs/")
	}

	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			log.Errorln("Config file was found but another error was produced ⛔")
			return configs, errors.Wrapf(err, "failed to read config %q", path)
		}
		log.Warnln("Config file not found! using default configs ⛔")
	} else {
		log.WithField("File", v.ConfigFileUsed()).Infoln("Config file found")
	}

	if err := v.Unmarshal(&configs); err != nil {
		log.Errorln("Unable to unmarshal configs ⛔")
		return configs, errors.Wrap(err, "failed to unmarshal configs")
	}
	log.Infoln("Config file parsed successfully ✅")
	return configs, nil
}

// setDefault merges the embedded defaults. A second viper parses them so
// the main one still infers the config file type from its extension.
func setDefault(v *viper.Viper) error {
	d := viper.New()
	d.SetConfigType("json")
	if err := d.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return errors.Wrap(err, "failed to read default configs")
	}
	return errors.Wrap(v.MergeConfigMap(d.AllSettings()), "failed to merge default configs")
}

// ResolveDashboard returns the inline dashboard when present, otherwise a
// copy of the named built-in variant.
func (c Cfg) ResolveDashboard() (*schema.Dashboard, error) {
	if c.Dashboard.Inline != nil && len(c.Dashboard.Inline.Views) > 0 {
		return c.Dashboard.Inline, nil
	}
	return schema.Variant(c.Dashboard.Variant)
}
