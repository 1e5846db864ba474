package neo4j

import (
	"context"
	"fmt"
	"os"

	"github.com/fitz/gameplan/internal/retry"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client wraps the Neo4j driver with application-specific configuration
type Client struct {
	driver neo4j.DriverWithContext
	db     string
}

// Config holds Neo4j connection configuration
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// ConfigFromEnv creates a Config from environment variables
func ConfigFromEnv() Config {
	return Config{
		URI:      getEnvOrDefault("NEO4J_URI", "bolt://localhost:7687"),
		Username: getEnvOrDefault("NEO4J_USERNAME", "neo4j"),
		Password: getEnvOrDefault("NEO4J_PASSWORD", "password"),
		Database: getEnvOrDefault("NEO4J_DATABASE", "neo4j"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// NewClient creates a new Neo4j client
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	client := &Client{
		driver: driver,
		db:     cfg.Database,
	}

	if err := client.initSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return client, nil
}

// NewClientWithRetry keeps trying NewClient while the database starts up.
// A nil opts uses retry.Default().
func NewClientWithRetry(ctx context.Context, cfg Config, opts *retry.Options) (*Client, error) {
	o := retry.Default()
	if opts != nil {
		o = *opts
	}
	var client *Client
	err := retry.Do(ctx, o, func() error {
		c, err := NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Close closes the Neo4j driver
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Session returns a new Neo4j session
func (c *Client) Session(ctx context.Context) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.db,
	})
}

// schemaQueries index every label on its owner, and ids where rows have one.
var schemaQueries = []string{
	`CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE`,
	`CREATE INDEX template_user IF NOT EXISTS FOR (n:ActivityTemplate) ON (n.user_id, n.id)`,
	`CREATE INDEX log_user_date IF NOT EXISTS FOR (n:ActivityLog) ON (n.user_id, n.date)`,
	`CREATE INDEX event_user_date IF NOT EXISTS FOR (n:CalendarEvent) ON (n.user_id, n.date)`,
	`CREATE INDEX schedule_user IF NOT EXISTS FOR (n:TaskSchedule) ON (n.user_id, n.task_id)`,
	`CREATE INDEX completion_user_date IF NOT EXISTS FOR (n:TaskCompletion) ON (n.user_id, n.date)`,
	`CREATE INDEX skip_user IF NOT EXISTS FOR (n:SkippedTask) ON (n.user_id, n.item_key)`,
	`CREATE INDEX program_user IF NOT EXISTS FOR (n:ProgramEnrollment) ON (n.user_id, n.id)`,
	`CREATE INDEX meal_user_date IF NOT EXISTS FOR (n:MealPlan) ON (n.user_id, n.date)`,
	`CREATE INDEX day_order_user_date IF NOT EXISTS FOR (n:DayOrder) ON (n.user_id, n.date)`,
	`CREATE INDEX locked_day_user IF NOT EXISTS FOR (n:LockedDay) ON (n.user_id, n.day_of_week)`,
	`CREATE INDEX week_override_user IF NOT EXISTS FOR (n:WeekOverride) ON (n.user_id, n.week_start)`,
}

// initSchema creates indexes and constraints for the graph
func (c *Client) initSchema(ctx context.Context) error {
	session := c.Session(ctx)
	defer session.Close(ctx)

	for _, query := range schemaQueries {
		_, err := session.Run(ctx, query, nil)
		if err != nil {
			return fmt.Errorf("failed to run schema query %q: %w", query, err)
		}
	}

	return nil
}
