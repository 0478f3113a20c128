package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const serverTemplate = `name = "commd"
addr = ":9100"
path = "/comm"
session_expiration = "5m"
shutdown_timeout = "5s"
cors_origins = ["http://localhost:3000"]
# auth_token = "change-me"
# tls_cert_file = "certs/commd.crt"
# tls_key_file = "certs/commd.key"
# tls_client_ca_file = "certs/ca.crt"
`

const clientTemplate = `endpoint = "http://localhost:9100/comm"
namespaces = ["/io"]
connect_timeout = "5s"
request_timeout = "30s"
# ca_file = "certs/ca.crt"
# cert_file = "certs/commctl.crt"
# key_file = "certs/commctl.key"

[headers]
X-Client = "commctl"
# Authorization = "Bearer change-me"

[poll]
stress_interval = "100ms"
base_interval = "250ms"
max_interval = "1s"
step = "250ms"
relax_threshold = 10
`
