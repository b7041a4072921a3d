package dig_container

import (
	"context"
	"fmt"
	"log"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/media"
	"github.com/trezcool/elimu/core/order"
	"github.com/trezcool/elimu/core/progress"
	"github.com/trezcool/elimu/core/user"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
	mediasvc "github.com/trezcool/elimu/services/media"
	paymentsvc "github.com/trezcool/elimu/services/payment"
	"github.com/trezcool/elimu/storage/cache/rediscache"
	"github.com/trezcool/elimu/storage/database"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newRollbarLogger(conf *core.Config, name string) core.Logger {
	zl, err := logsvc.NewZapLogger(conf, name)
	if err != nil {
		log.Fatal(errors.Wrap(err, "building zap logger").Error())
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger {
	return newRollbarLogger(conf, "API")
}

func newDBLogger(conf *core.Config) core.Logger {
	return newRollbarLogger(conf, "DB")
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) *database.Store {
	store, err := database.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return store
}

// newCourseRepository puts the redis cache in front of the course repository when it is enabled and reachable.
func newCourseRepository(conf *core.Config, store *database.Store, loggerParam DBLoggerParam) course.Repository {
	if !conf.Cache.Enabled {
		return store.Courses
	}
	rdb, err := rediscache.NewClient(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Warn("course cache disabled: "+err.Error(), err)
		return store.Courses
	}
	return rediscache.NewCourseRepository(store.Courses, rdb, conf.Cache.TTL, loggerParam.Logger)
}

func newProgressService(
	repo progress.Repository,
	courses *course.Service,
	enrollments *enrollment.Service,
	tx core.Transactor,
) *progress.Service {
	return progress.NewService(repo, courses, enrollments, tx)
}

func newOrderService(
	conf *core.Config,
	repo order.Repository,
	processor order.PaymentProcessor,
	courses *course.Service,
	enrollments *enrollment.Service,
	tx core.Transactor,
	mailSvc core.EmailService,
) *order.Service {
	return order.NewService(conf, repo, processor, courses, enrollments, tx, mailSvc)
}

func newPaymentProcessor(conf *core.Config, logger core.Logger) order.PaymentProcessor {
	if conf.Debug && conf.Payment.ClientID == "" {
		logger.Warn("no PayPal credentials: using the payment processor mock")
		return paymentsvc.NewProcessorMock()
	}
	return paymentsvc.NewPayPalProcessor(conf)
}

func newMediaStorage(conf *core.Config, logger core.Logger) media.Storage {
	storage, err := mediasvc.NewStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media storage: %v", err), err)
	}
	return storage
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidate() *validator.Validate {
	return validator.New()
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(func(s *database.Store) user.Repository { return s.Users }))
	must(c.Provide(newCourseRepository))
	must(c.Provide(func(s *database.Store) enrollment.Repository { return s.Enrollments }))
	must(c.Provide(func(s *database.Store) progress.Repository { return s.Progress }))
	must(c.Provide(func(s *database.Store) order.Repository { return s.Orders }))
	must(c.Provide(func(s *database.Store) core.Transactor { return s.Tx }))
	must(c.Provide(newEmailService))
	must(c.Provide(newPaymentProcessor))
	must(c.Provide(newMediaStorage))
	must(c.Provide(newValidate))
	must(c.Provide(newTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(newProgressService))
	must(c.Provide(newOrderService))
	must(c.Provide(media.NewService))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
