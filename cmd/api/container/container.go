package container

import (
	"github.com/myuon/flowit-sub001/cmd/api/service"
	"github.com/myuon/flowit-sub001/common/bootstrap"
	"github.com/myuon/flowit-sub001/common/condition"
	"github.com/myuon/flowit-sub001/common/executor"
	"github.com/myuon/flowit-sub001/common/httpclient"
	"github.com/myuon/flowit-sub001/common/node"
	"github.com/myuon/flowit-sub001/common/nodes"
	"github.com/myuon/flowit-sub001/common/ratelimit"
	"github.com/myuon/flowit-sub001/common/repository"
	"github.com/myuon/flowit-sub001/common/security"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components

	// Engine
	Registry *node.Registry
	Executor *executor.Executor
	Limiter  *ratelimit.Limiter

	// Repositories
	WorkflowRepo  *repository.WorkflowRepository
	VersionRepo   *repository.VersionRepository
	ExecutionRepo *repository.ExecutionRepository
	LogRepo       *repository.ExecutionLogRepository
	ScheduleRepo  *repository.ScheduleRepository

	// Services
	WorkflowService  *service.WorkflowService
	ExecutionService *service.ExecutionService
	RunService       *service.RunService
	ScheduleService  *service.ScheduleService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Node registry with the built-in set. The API's http-request node goes
	// through the same outbound guards the worker uses.
	registry := node.NewRegistry(log)
	guard := security.NewGuard(cfg.Security.AllowPrivateHosts, cfg.Security.BlockedHosts)
	nodes.RegisterAll(registry, nodes.Deps{
		Evaluator: condition.NewEvaluator(),
		HTTP:      httpclient.New(guard, log),
	})

	exec := executor.New(registry, log)

	var limiter *ratelimit.Limiter
	if components.Redis != nil {
		limiter = ratelimit.New(components.Redis.GetUnderlying(), log)
	}

	// Repositories
	workflowRepo := repository.NewWorkflowRepository(components.DB)
	versionRepo := repository.NewVersionRepository(components.DB)
	executionRepo := repository.NewExecutionRepository(components.DB)
	logRepo := repository.NewExecutionLogRepository(components.DB)
	scheduleRepo := repository.NewScheduleRepository(components.DB)

	// Services (bottom-up: dependencies first)
	workflowService := service.NewWorkflowService(workflowRepo, versionRepo, registry, log)
	executionService := service.NewExecutionService(workflowRepo, versionRepo, executionRepo, logRepo, log)
	runService := service.NewRunService(registry, exec, log)
	scheduleService := service.NewScheduleService(scheduleRepo, workflowRepo, log)

	return &Container{
		Components:       components,
		Registry:         registry,
		Executor:         exec,
		Limiter:          limiter,
		WorkflowRepo:     workflowRepo,
		VersionRepo:      versionRepo,
		ExecutionRepo:    executionRepo,
		LogRepo:          logRepo,
		ScheduleRepo:     scheduleRepo,
		WorkflowService:  workflowService,
		ExecutionService: executionService,
		RunService:       runService,
		ScheduleService:  scheduleService,
	}, nil
}
