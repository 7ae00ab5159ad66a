package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ProbesConfig describes the marker files used by exec-style readiness and liveness probes
// of processes that expose no HTTP port.
type ProbesConfig struct {
	ReadinessFileName string        `koanf:"readinessfilename"`
	LivenessFileName  string        `koanf:"livenessfilename"`
	LivenessInterval  time.Duration `koanf:"livenessinterval"`
}

const (
	defaultReadinessFileName = "/tmp/ready"
	defaultLivenessFileName  = "/tmp/live"
	defaultLivenessInterval  = 20 * time.Second
)

// String returns a string representation of the ProbesConfig.
func (c *ProbesConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Probes ---\n")
	b.WriteString(fmt.Sprintf("  readinessfilename: %s\n", c.ReadinessFileName))
	b.WriteString(fmt.Sprintf("  livenessfilename: %s\n", c.LivenessFileName))
	b.WriteString(fmt.Sprintf("  livenessinterval: %s\n", c.LivenessInterval))
	return b.String()
}

// Validate fills in defaults for unset fields; it never fails.
func (c *ProbesConfig) Validate() error {
	if c.ReadinessFileName == "" {
		log.Println("Using default value for probes.readinessfilename")
		c.ReadinessFileName = defaultReadinessFileName
	}
	if c.LivenessFileName == "" {
		log.Println("Using default value for probes.livenessfilename")
		c.LivenessFileName = defaultLivenessFileName
	}
	if c.LivenessInterval <= 0 {
		log.Println("Using default value for probes.livenessinterval")
		c.LivenessInterval = defaultLivenessInterval
	}
	return nil
}
