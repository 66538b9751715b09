package main

import (
	"errors"
	"flag"
	"log"

	"github.com/taskmaster-hq/bugtracker/internal/database"
	"github.com/taskmaster-hq/bugtracker/internal/models"
	"github.com/taskmaster-hq/bugtracker/internal/notify"
	"github.com/taskmaster-hq/bugtracker/internal/service"
	"github.com/taskmaster-hq/bugtracker/pkg/config"
)

type demoUser struct {
	username string
	email    string
	fullName string
	password string
	role     models.UserRole
}

var demoUsers = []demoUser{
	{"admin", "admin@taskmaster.local", "System Administrator", "admin123", models.UserRoleAdmin},
	{"john.doe", "john.doe@company.com", "John Doe", "password123", models.UserRoleDeveloper},
	{"jane.smith", "jane.smith@company.com", "Jane Smith", "password123", models.UserRoleDeveloper},
	{"bob.wilson", "bob.wilson@company.com", "Bob Wilson", "password123", models.UserRoleTester},
}

type sampleIssue struct {
	title       string
	description string
	issueType   models.IssueType
	priority    int
	severity    int
	statusID    uint
	module      string
	assignee    string
	labels      []string
}

var sampleIssues = []sampleIssue{
	{
		title:       "Trading engine crashes on empty order book",
		description: "Submitting a market order while the order book is empty raises an unhandled exception and kills the trading loop.",
		issueType:   models.IssueTypeBug,
		priority:    models.PriorityCritical,
		severity:    models.SeverityBlocker,
		statusID:    2,
		module:      "TRADING",
		assignee:    "john.doe",
		labels:      []string{"hotfix-candidate", "customer-reported"},
	},
	{
		title:       "Broker reconnect loses open positions",
		description: "After a broker API reconnect the positions cache is empty until the next full sync.",
		issueType:   models.IssueTypeBug,
		priority:    models.PriorityHigh,
		severity:    models.SeverityMajor,
		statusID:    6,
		module:      "BROKER",
		assignee:    "jane.smith",
		labels:      []string{"regression"},
	},
	{
		title:       "Add trailing stop support to strategy engine",
		description: "Strategies need a trailing stop primitive with configurable distance and step.",
		issueType:   models.IssueTypeFeature,
		priority:    models.PriorityMedium,
		severity:    models.SeverityMinor,
		statusID:    1,
		module:      "STRATEGY",
	},
	{
		title:       "Portfolio valuation slow with 500+ positions",
		description: "Full revaluation takes over 4 seconds; profile shows repeated price lookups per position.",
		issueType:   models.IssueTypePerformance,
		priority:    models.PriorityHigh,
		severity:    models.SeverityMajor,
		statusID:    2,
		module:      "PORTFOLIO",
		assignee:    "john.doe",
		labels:      []string{"performance-critical"},
	},
	{
		title:       "RSI indicator off by one period",
		description: "Computed RSI values differ from the reference implementation by one period shift.",
		issueType:   models.IssueTypeBug,
		priority:    models.PriorityMedium,
		severity:    models.SeverityMinor,
		statusID:    8,
		module:      "ANALYSIS",
		assignee:    "bob.wilson",
		labels:      []string{"easy-fix"},
	},
	{
		title:       "Document risk limit configuration",
		description: "The per-strategy risk limit keys are undocumented.",
		issueType:   models.IssueTypeDocumentation,
		priority:    models.PriorityLow,
		severity:    models.SeverityTrivial,
		statusID:    1,
		module:      "RISK",
	},
	{
		title:       "API keys stored in plain text config",
		description: "Broker API keys are written unencrypted to config.json.",
		issueType:   models.IssueTypeSecurity,
		priority:    models.PriorityCritical,
		severity:    models.SeverityBlocker,
		statusID:    6,
		module:      "SECURITY",
		assignee:    "jane.smith",
		labels:      []string{"breaking-change"},
	},
	{
		title:       "Nightly data import duplicates candles on retry",
		description: "A failed import retried by the scheduler inserts duplicate OHLC rows.",
		issueType:   models.IssueTypeBug,
		priority:    models.PriorityHigh,
		severity:    models.SeverityMajor,
		statusID:    5,
		module:      "DATA",
		assignee:    "john.doe",
	},
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to optional config file (overrides env vars)")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	users := service.NewUserService(db)
	tasks := service.NewTaskService(db, notify.NopSink{})

	userIDs := make(map[string]uint)
	for _, du := range demoUsers {
		existing, err := db.GetUserByUsername(du.username)
		if err == nil {
			userIDs[du.username] = existing.ID
			continue
		}
		if !errors.Is(err, database.ErrNotFound) {
			log.Fatalf("Failed to look up user %s: %v", du.username, err)
		}

		user, err := users.Register(du.username, du.email, du.fullName, du.password, du.role)
		if err != nil {
			log.Fatalf("Failed to create user %s: %v", du.username, err)
		}
		userIDs[du.username] = user.ID
		log.Printf("Created demo user %s (%s)", du.username, du.role)
	}

	project, err := db.GetProjectByName("Money Mentor AI")
	if err != nil {
		log.Fatalf("Failed to load default project: %v", err)
	}

	adminID := userIDs["admin"]
	created := 0
	for _, si := range sampleIssues {
		// Idempotency: skip issues already present by title.
		var count int64
		if err := db.Model(&models.Task{}).
			Where("project_id = ? AND title = ?", project.ID, si.title).
			Count(&count).Error; err != nil {
			log.Fatalf("Failed to check for existing issue: %v", err)
		}
		if count > 0 {
			continue
		}

		task := models.Task{
			ProjectID:   project.ID,
			Title:       si.title,
			Description: si.description,
			IssueType:   si.issueType,
			Priority:    si.priority,
			Severity:    si.severity,
			StatusID:    si.statusID,
			ReporterID:  &adminID,
		}
		if si.module != "" {
			module, err := db.GetModuleByName(si.module)
			if err != nil {
				log.Fatalf("Failed to load module %s: %v", si.module, err)
			}
			task.ModuleID = &module.ID
		}
		if si.assignee != "" {
			assigneeID := userIDs[si.assignee]
			task.AssigneeID = &assigneeID
		}

		if err := tasks.CreateTask(&task); err != nil {
			log.Fatalf("Failed to create issue %q: %v", si.title, err)
		}
		if len(si.labels) > 0 {
			if err := db.SetTaskLabels(task.ID, si.labels); err != nil {
				log.Fatalf("Failed to label issue %q: %v", si.title, err)
			}
		}
		created++
	}

	log.Printf("Demo data ready: %d users, %d new issues", len(userIDs), created)
}
