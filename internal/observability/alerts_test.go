package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertFile struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestAlertRulesReferenceExportedMetrics(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "api.yml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rules alertFile
	require.NoError(t, yaml.Unmarshal(data, &rules))
	require.Len(t, rules.Groups, 1)
	require.Equal(t, "admin-api", rules.Groups[0].Name)

	metrics := NewMetrics()
	metrics.RecordAuth(AuthOK)
	metrics.RecordLogin(LoginSuccess)
	metrics.requestsTotal.WithLabelValues("/", "200").Inc()
	metrics.requestDuration.WithLabelValues("/").Observe(0.1)
	families, err := metrics.registry.Gather()
	require.NoError(t, err)
	known := make([]string, 0, len(families))
	for _, f := range families {
		known = append(known, f.GetName())
	}

	expectedSeverity := map[string]string{
		"HighErrorRate":   "critical",
		"HighLatency":     "warning",
		"LoginBruteForce": "warning",
		"AuthStoreErrors": "critical",
	}
	require.Len(t, rules.Groups[0].Rules, len(expectedSeverity))

	for _, rule := range rules.Groups[0].Rules {
		want, ok := expectedSeverity[rule.Alert]
		require.Truef(t, ok, "unexpected rule %q", rule.Alert)
		require.Equalf(t, want, rule.Labels["severity"], "rule %s severity", rule.Alert)
		require.NotEmptyf(t, rule.Annotations["summary"], "rule %s summary", rule.Alert)
		require.NotEmptyf(t, rule.Annotations["description"], "rule %s description", rule.Alert)
		require.NotEmptyf(t, rule.For, "rule %s hold duration", rule.Alert)

		referenced := false
		for _, name := range known {
			if strings.Contains(rule.Expr, name) {
				referenced = true
				break
			}
		}
		require.Truef(t, referenced, "rule %s does not reference an exported metric: %s", rule.Alert, rule.Expr)
	}
}
