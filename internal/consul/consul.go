// Package consul wraps the bits of service discovery this project needs: the
// bot registers its internal ticket API, the storefront API looks it up.
package consul

import (
	"fmt"
	"os"

	consulapi "github.com/hashicorp/consul/api"
)

// NewClient connects to the agent at CONSUL_HTTP_ADDR (or the library
// default when unset).
func NewClient() (*consulapi.Client, error) {
	config := consulapi.DefaultConfig()
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		config.Address = addr
	}
	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return client, nil
}

// RegisterService registers a service instance with the local agent.
func RegisterService(client *consulapi.Client, name, id, address string, port int) error {
	registration := &consulapi.AgentServiceRegistration{
		ID:      id,
		Name:    name,
		Address: address,
		Port:    port,
	}
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service %s: %w", name, err)
	}
	return nil
}

// DeregisterService removes a service instance from the local agent.
func DeregisterService(client *consulapi.Client, id string) error {
	if err := client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", id, err)
	}
	return nil
}

// GetServiceAddress returns the address and port of a healthy instance of
// the named service.
func GetServiceAddress(client *consulapi.Client, serviceName string) (string, int, error) {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to query service %s: %w", serviceName, err)
	}
	if len(services) == 0 {
		return "", 0, fmt.Errorf("no healthy instances of service %s", serviceName)
	}
	svc := services[0].Service
	address := svc.Address
	if address == "" {
		address = services[0].Node.Address
	}
	return address, svc.Port, nil
}
