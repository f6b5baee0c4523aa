package main

import (
	"log"

	"github.com/pot-code/course-gateway/internal/course"
	infra "github.com/pot-code/course-gateway/internal/infrastructure"
	"github.com/pot-code/course-gateway/internal/infrastructure/apiclient"
	"github.com/pot-code/course-gateway/internal/infrastructure/driver"
	"github.com/pot-code/course-gateway/internal/infrastructure/logging"
	"github.com/pot-code/course-gateway/internal/infrastructure/uuid"
	"github.com/pot-code/course-gateway/internal/infrastructure/validate"
	ihttp "github.com/pot-code/course-gateway/internal/interfaces/http"
	"github.com/pot-code/course-gateway/internal/progress"
	"github.com/pot-code/course-gateway/internal/progression"
	"github.com/pot-code/course-gateway/internal/user"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
	if err := rdb.Ping(); err != nil {
		logger.Warn("KV store is not reachable yet", zap.Error(err))
	}

	client, err := apiclient.New(&apiclient.Config{
		BaseURL: option.Remote.BaseURL,
		Timeout: option.Remote.Timeout,
	})
	if err != nil {
		log.Fatalf("Failed to create remote client: %s\n", err)
	}

	var (
		dbConn        driver.ITransactionalDB
		ProgressStore progress.ProgressRepository
	)
	switch option.Progress.Store {
	case infra.ProgressStoreSQL:
		dbConn, err = driver.GetDBConnection(&driver.DBConfig{
			User:     option.Database.User,
			Password: option.Database.Password,
			MaxConn:  option.Database.MaxConn,
			Protocol: option.Database.Protocol,
			Driver:   option.Database.Driver,
			Host:     option.Database.Host,
			Port:     option.Database.Port,
			Query:    option.Database.Query,
			Schema:   option.Database.Schema,
		})
		if err != nil {
			log.Fatalf("Failed to create DB connection: %s\n", err)
		}
		logger.Debug("Create db connection instance", zap.String("db.driver", option.Database.Driver),
			zap.String("db.schema", option.Database.Schema),
			zap.String("db.host", option.Database.Host),
		)
		ProgressStore = progress.NewProgressSQL(dbConn)
	default:
		ProgressStore = progress.NewProgressRemote(client)
	}

	engineConfig := progression.DefaultConfig()
	engineConfig.GateQuizView = option.Progress.GateQuizView
	if option.Progress.RetryDelay > 0 {
		engineConfig.RetryDelay = option.Progress.RetryDelay
	}
	if option.Progress.SaveTimeout > 0 {
		engineConfig.SaveTimeout = option.Progress.SaveTimeout
	}

	CourseRepo := course.NewCourseRemote(client)
	Hub := progression.NewHub(16)
	Sessions := progression.NewRegistry(CourseRepo, ProgressStore, engineConfig, Hub, logger)

	CourseUseCase := course.NewCourseUseCase(CourseRepo, Sessions, validate.NewValidator())
	UserUseCase := user.NewUserUseCase(
		user.NewUserRemote(client),
		CourseRepo,
		user.NewSessionKV(rdb),
		Sessions,
		uuid.NewSessionIDGenerator(option.Security.IDLength),
		option.SessionTimeout,
	)
	// a token the platform rejects is dropped together with its gateway session
	client.OnUnauthorized(UserUseCase.DropRemoteToken)

	ihttp.Serve(dbConn, rdb, option, UserUseCase, CourseUseCase, Sessions, Hub, logger)
}
