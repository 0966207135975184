package economy

import (
	_ "embed"

	"github.com/ar3/our-gruuv-sub016/modules/economy/handlers"
	"github.com/ar3/our-gruuv-sub016/modules/economy/infrastructure/persistence"
	"github.com/ar3/our-gruuv-sub016/modules/economy/presentation/controllers"
	"github.com/ar3/our-gruuv-sub016/modules/economy/services"
	"github.com/ar3/our-gruuv-sub016/pkg/application"
	"github.com/ar3/our-gruuv-sub016/pkg/outbox"
)

//go:embed infrastructure/persistence/schema/economy-schema.sql
var migrationSchema string

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema("economy", migrationSchema)

	ledgerRepo := persistence.NewLedgerRepository()
	transactionRepo := persistence.NewTransactionRepository()
	redemptionRepo := persistence.NewRedemptionRepository()
	rewardRepo := persistence.NewRewardRepository()
	configRepo := persistence.NewEconomyConfigRepository()

	posting := services.NewPostingService(ledgerRepo, transactionRepo, outbox.NewPublisher())
	configs := services.NewEconomyConfigService(configRepo)

	app.RegisterServices(
		posting,
		configs,
		services.NewAwardService(posting, configs),
		services.NewRedemptionService(redemptionRepo, rewardRepo, ledgerRepo, posting),
		services.NewRewardService(rewardRepo),
		services.NewLedgerService(ledgerRepo, transactionRepo),
	)

	app.RegisterControllers(
		controllers.NewEconomyAPIController(app),
	)

	handlers.RegisterObservationEventHandlers(app)

	return nil
}

func (m *Module) Name() string {
	return "economy"
}
