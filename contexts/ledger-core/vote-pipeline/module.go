package votepipeline

import (
	"log/slog"
	"time"

	httpadapter "votary/contexts/ledger-core/vote-pipeline/adapters/http"
	"votary/contexts/ledger-core/vote-pipeline/adapters/memory"
	"votary/contexts/ledger-core/vote-pipeline/application"
	"votary/contexts/ledger-core/vote-pipeline/application/commands"
	"votary/contexts/ledger-core/vote-pipeline/application/queries"
	"votary/contexts/ledger-core/vote-pipeline/domain/entities"
	"votary/contexts/ledger-core/vote-pipeline/domain/services"
	"votary/contexts/ledger-core/vote-pipeline/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Sequencer *application.Sequencer
	Store     *memory.Store
}

type Dependencies struct {
	Accounts              ports.AccountStore
	Pool                  ports.TransactionPool
	Journal               ports.TransactionJournal
	Idempotency           ports.IdempotencyStore
	Outbox                ports.OutboxWriter
	Clock                 ports.Clock
	IDGen                 ports.IDGenerator
	VerifySecondPublicKey bool
	IdempotencyTTL        time.Duration
	QueueDepth            int
	Logger                *slog.Logger
}

func NewModule(deps Dependencies) Module {
	sequencer := application.NewSequencer(deps.QueueDepth)
	voteUseCase := commands.VoteUseCase{
		Accounts:       deps.Accounts,
		Pool:           deps.Pool,
		Journal:        deps.Journal,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Sequencer:      sequencer,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		Policy:         services.PolicyEngine{VerifySecondPublicKey: deps.VerifySecondPublicKey},
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votes:        voteUseCase,
			Accounts:     queries.AccountQuery{Accounts: deps.Accounts},
			Transactions: queries.TransactionQuery{Journal: deps.Journal},
			Logger:       deps.Logger,
		},
		Sequencer: sequencer,
	}
}

func NewInMemoryModule(seed []entities.Account, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Accounts:       store,
		Pool:           store,
		Journal:        store,
		Idempotency:    store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
