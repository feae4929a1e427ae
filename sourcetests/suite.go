package sourcetests

import (
	"context"
	"testing"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"

	"github.com/pitabwire/telereso/data"
)

// Resource is a containerised backing service a source test runs against.
type Resource interface {
	Name() string
	Setup(ctx context.Context, network *testcontainers.DockerNetwork) error
	DSN() data.DSN
	Cleanup(ctx context.Context)
}

// ContainerSuite starts the resources returned by InitResourceFunc once per suite.
// Suites are skipped when tests run with -short.
type ContainerSuite struct {
	suite.Suite
	Network   *testcontainers.DockerNetwork
	resources []Resource

	InitResourceFunc func(ctx context.Context) []Resource
}

// SetupSuite creates the network and starts every resource.
func (s *ContainerSuite) SetupSuite() {
	t := s.T()
	if testing.Short() {
		t.Skip("skipping container backed tests in short mode")
	}

	ctx := t.Context()
	log := util.Log(ctx)

	require.NotNil(t, s.InitResourceFunc, "InitResourceFunc is required")

	ntwk, err := network.New(ctx)
	require.NoError(t, err, "could not create network")
	s.Network = ntwk

	s.resources = s.InitResourceFunc(ctx)
	for _, dep := range s.resources {
		log.WithField("image", dep.Name()).Info("Setting up container...")
		err = dep.Setup(ctx, ntwk)
		require.NoError(t, err, "could not setup container")
	}
}

// DSN returns the connection string of the first resource whose DSN satisfies match.
func (s *ContainerSuite) DSN(match func(data.DSN) bool) data.DSN {
	for _, dep := range s.resources {
		if ds := dep.DSN(); match(ds) {
			return ds
		}
	}
	return ""
}

// TearDownSuite terminates the resources and removes the network.
func (s *ContainerSuite) TearDownSuite() {
	ctx := context.Background()

	for _, dep := range s.resources {
		dep.Cleanup(ctx)
	}

	if s.Network != nil {
		if err := s.Network.Remove(ctx); err != nil {
			util.Log(ctx).WithError(err).Warn("could not remove network")
		}
	}
}
