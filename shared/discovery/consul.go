package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// Config describes how the service announces itself to Consul.
// Registration is skipped when Address is empty.
type Config struct {
	Address       string `env:"CONSUL_ADDRESS"`
	ServiceName   string `env:"CONSUL_SERVICE_NAME"   envDefault:"social-service"`
	AdvertiseHost string `env:"CONSUL_ADVERTISE_HOST" envDefault:"localhost"`
	CheckInterval string `env:"CONSUL_CHECK_INTERVAL" envDefault:"10s"`
}

// Enabled reports whether a Consul agent is configured.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// Registry registers and deregisters service instances with a Consul agent.
type Registry struct {
	client *api.Client
	config Config
	logger *zerolog.Logger
}

// NewRegistry creates a Registry talking to the agent at cfg.Address.
func NewRegistry(cfg Config, logger *zerolog.Logger) (*Registry, error) {
	consulCfg := api.DefaultConfig()
	consulCfg.Address = cfg.Address

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &Registry{client: client, config: cfg, logger: logger}, nil
}

// ServiceID returns the instance id used for the given port.
func (r *Registry) ServiceID(port int) string {
	return fmt.Sprintf("%s-%s-%d", r.config.ServiceName, r.config.AdvertiseHost, port)
}

// Registration builds the agent registration for a gRPC endpoint on port,
// health-checked through the standard gRPC health service.
func (r *Registry) Registration(port int) *api.AgentServiceRegistration {
	target := net.JoinHostPort(r.config.AdvertiseHost, strconv.Itoa(port))

	return &api.AgentServiceRegistration{
		ID:      r.ServiceID(port),
		Name:    r.config.ServiceName,
		Address: r.config.AdvertiseHost,
		Port:    port,
		Tags:    []string{"grpc"},
		Check: &api.AgentServiceCheck{
			GRPC:                           target,
			Interval:                       r.config.CheckInterval,
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// Register announces the gRPC endpoint on port.
func (r *Registry) Register(port int) error {
	reg := r.Registration(port)
	if err := r.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("failed to register service with consul: %w", err)
	}

	r.logger.Info().Str("service_id", reg.ID).Msg("registered with consul")

	return nil
}

// Deregister removes the instance registered for port.
func (r *Registry) Deregister(port int) error {
	id := r.ServiceID(port)
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service from consul: %w", err)
	}

	r.logger.Info().Str("service_id", id).Msg("deregistered from consul")

	return nil
}
