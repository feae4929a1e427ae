package sourcetests

import (
	"context"
	"fmt"

	"github.com/pitabwire/util"
	"github.com/testcontainers/testcontainers-go"
	tcNats "github.com/testcontainers/testcontainers-go/modules/nats"
	tcValKey "github.com/testcontainers/testcontainers-go/modules/valkey"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pitabwire/telereso/data"
)

const (
	ValKeyImage = "docker.io/valkey/valkey:latest"
	NatsImage   = "nats:latest"
)

type valKeyDependancy struct {
	image     string
	conn      data.DSN
	container *tcValKey.ValkeyContainer
}

// NewValkey describes a Valkey server reachable through a redis:// DSN.
func NewValkey() Resource {
	return &valKeyDependancy{image: ValKeyImage}
}

func (d *valKeyDependancy) Name() string {
	return d.image
}

func (d *valKeyDependancy) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	valkeyContainer, err := tcValKey.Run(ctx, d.image,
		network.WithNetwork([]string{"valkey", "source-valkey"}, ntwk),
	)
	if err != nil {
		return fmt.Errorf("failed to start valkey container: %w", err)
	}
	d.container = valkeyContainer

	conn, err := valkeyContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection string for valkey container: %w", err)
	}
	d.conn = data.DSN(conn)
	return nil
}

func (d *valKeyDependancy) DSN() data.DSN {
	return d.conn
}

func (d *valKeyDependancy) Cleanup(ctx context.Context) {
	terminate(ctx, d.container, "valkey")
}

type natsDependancy struct {
	image     string
	conn      data.DSN
	container *tcNats.NATSContainer
}

// NewNats describes a NATS server with JetStream enabled.
func NewNats() Resource {
	return &natsDependancy{image: NatsImage}
}

func (d *natsDependancy) Name() string {
	return d.image
}

func (d *natsDependancy) Setup(ctx context.Context, ntwk *testcontainers.DockerNetwork) error {
	natsContainer, err := tcNats.Run(ctx, d.image,
		network.WithNetwork([]string{"nats", "source-nats"}, ntwk),
		testcontainers.WithCmdArgs("--js"),
		testcontainers.WithWaitStrategy(wait.ForLog("Server is ready")),
	)
	if err != nil {
		return fmt.Errorf("failed to start nats container: %w", err)
	}
	d.container = natsContainer

	conn, err := natsContainer.ConnectionString(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection string for nats container: %w", err)
	}
	d.conn = data.DSN(conn)
	return nil
}

func (d *natsDependancy) DSN() data.DSN {
	return d.conn
}

func (d *natsDependancy) Cleanup(ctx context.Context) {
	terminate(ctx, d.container, "nats")
}

func terminate(ctx context.Context, container testcontainers.Container, name string) {
	if container == nil {
		return
	}
	if err := testcontainers.TerminateContainer(container); err != nil {
		util.Log(ctx).WithError(err).WithField("container", name).Error("Failed to terminate container")
	}
}
