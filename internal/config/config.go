// Package config loads nrfsctl settings from a YAML file, NRFS_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ystepanoff/nrfs/protocol"
	"github.com/ystepanoff/nrfs/service"
)

const (
	KeyNATSURL             = "nats.url"
	KeySubjectPrefix       = "nats.subject_prefix"
	KeyDomain              = "domain"
	KeyServices            = "services"
	KeyReportDrops         = "report_drops"
	KeyMetricsAddr         = "metrics.addr"
	KeyLogDevelopment      = "log.development"
	KeyLogLevel            = "log.level"
	KeyOutput              = "output"
	KeyNoResponsePolicy    = "dvfs.no_response_policy"
	KeyScalingOnNoResponse = "sysctrl.scaling_on_no_response"
	KeyRejectServices      = "sysctrl.reject_services"
)

type NATS struct {
	URL           string
	SubjectPrefix string
}

type Config struct {
	NATS             NATS
	Domain           string
	Services         []protocol.ServiceID
	ReportDrops      bool
	MetricsAddr      string
	LogDevelopment   bool
	LogLevel         int
	Output           string
	NoResponsePolicy service.NoResponsePolicy

	ScalingOnNoResponse bool
	RejectServices      []protocol.ServiceID
}

// New returns a viper instance with the nrfs search paths and defaults set.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("nrfs")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/nrfs/")
	v.AddConfigPath(".")

	v.SetEnvPrefix("NRFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyNATSURL, "nats://127.0.0.1:4222")
	v.SetDefault(KeySubjectPrefix, "nrfs")
	v.SetDefault(KeyDomain, "app")
	v.SetDefault(KeyServices, []string{})
	v.SetDefault(KeyReportDrops, false)
	v.SetDefault(KeyMetricsAddr, "")
	v.SetDefault(KeyLogDevelopment, true)
	v.SetDefault(KeyLogLevel, 0)
	v.SetDefault(KeyOutput, "table")
	v.SetDefault(KeyNoResponsePolicy, "allow")
	v.SetDefault(KeyScalingOnNoResponse, false)
	v.SetDefault(KeyRejectServices, []string{})
	return v
}

// Read loads the config file into v. A missing file is not an error; when
// path is set the file must exist.
func Read(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("config: reading %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

// Decode validates the settings in v. An empty service list enables every service.
func Decode(v *viper.Viper) (*Config, error) {
	c := &Config{
		NATS: NATS{
			URL:           v.GetString(KeyNATSURL),
			SubjectPrefix: v.GetString(KeySubjectPrefix),
		},
		Domain:              v.GetString(KeyDomain),
		ReportDrops:         v.GetBool(KeyReportDrops),
		MetricsAddr:         v.GetString(KeyMetricsAddr),
		LogDevelopment:      v.GetBool(KeyLogDevelopment),
		LogLevel:            v.GetInt(KeyLogLevel),
		Output:              v.GetString(KeyOutput),
		ScalingOnNoResponse: v.GetBool(KeyScalingOnNoResponse),
	}

	var err error
	if c.Services, err = serviceList(v.GetStringSlice(KeyServices)); err != nil {
		return nil, err
	}
	if len(c.Services) == 0 {
		c.Services = protocol.AllServices()
	}
	if c.RejectServices, err = serviceList(v.GetStringSlice(KeyRejectServices)); err != nil {
		return nil, err
	}

	switch strings.ToLower(v.GetString(KeyNoResponsePolicy)) {
	case "allow", "":
		c.NoResponsePolicy = service.NoResponseAllow
	case "deny":
		c.NoResponsePolicy = service.NoResponseDeny
	default:
		return nil, fmt.Errorf("config: %s must be allow or deny, got %q", KeyNoResponsePolicy, v.GetString(KeyNoResponsePolicy))
	}

	switch c.Output {
	case "table", "json", "yaml":
	default:
		return nil, fmt.Errorf("config: unsupported output format %q", c.Output)
	}
	if c.Domain == "" || strings.ContainsAny(c.Domain, ". *>") {
		return nil, fmt.Errorf("config: invalid domain %q", c.Domain)
	}
	return c, nil
}

func serviceList(names []string) ([]protocol.ServiceID, error) {
	var ids []protocol.ServiceID
	for _, n := range names {
		id, ok := protocol.ParseServiceID(strings.ToLower(n))
		if !ok {
			return nil, fmt.Errorf("config: unknown service %q", n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
