package storage

import (
	"context"

	"github.com/jmoiron/sqlx"

	"obra/internal/core"
	"obra/internal/log"
)

// defaultCategories is the fixed seed set. Order, names, and colors are
// part of the external contract and must be emitted exactly.
var defaultCategories = []core.Category{
	{Name: "Material de Construção", Description: "Cimento, areia, tijolos e demais insumos", Color: "#e74c3c"},
	{Name: "Mão de Obra", Description: "Pedreiros, serventes e empreiteiros", Color: "#3498db"},
	{Name: "Ferramentas e Equipamentos", Description: "Compra e aluguel de ferramentas", Color: "#f39c12"},
	{Name: "Elétrica", Description: "Fiação, quadros e material elétrico", Color: "#9b59b6"},
	{Name: "Hidráulica", Description: "Tubos, conexões e louças", Color: "#1abc9c"},
	{Name: "Acabamento", Description: "Pisos, pintura e revestimentos", Color: "#34495e"},
	{Name: "Documentação", Description: "Alvarás, taxas e projetos", Color: "#95a5a6"},
	{Name: "Transporte", Description: "Fretes e caçambas", Color: "#e67e22"},
	{Name: "Alimentação", Description: "Refeições da equipe", Color: "#27ae60"},
	{Name: "Outros", Description: "Despesas não classificadas", Color: "#7f8c8d"},
}

const (
	defaultProjectName   = "Minha Obra"
	defaultBudgetCents   = 100_000_00
	defaultProjectLength = 365 // days
)

// Seeder populates the default categories and project on first run.
type Seeder struct {
	store  *Store
	logger *log.Logger
}

func NewSeeder(store *Store, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Seeder{store: store, logger: logger.WithComponent(log.ComponentSeed)}
}

// SeedIfEmpty inserts the ten default categories and the default project
// when their tables are empty. Runs in a single transaction; re-running on
// a non-empty schema is a no-op and existing rows are never modified.
func (s *Seeder) SeedIfEmpty(ctx context.Context) error {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.seedCategories(ctx, tx); err != nil {
			return err
		}
		return s.seedProject(ctx, tx)
	})
	return wrapStorage("seed defaults", err)
}

func (s *Seeder) seedCategories(ctx context.Context, tx *sqlx.Tx) error {
	b := s.store.Dialect.Builder()

	var n int
	query, args, err := b.Select("COUNT(*)").From("categories").ToSql()
	if err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return err
	}
	if n > 0 {
		s.logger.DebugContext(ctx, "Categories already present, skipping", log.FieldCount, n)
		return nil
	}

	for _, c := range defaultCategories {
		ib := b.Insert("categories").
			Columns("name", "description", "color", "active").
			Values(c.Name, c.Description, c.Color, true)
		if _, err := s.store.Dialect.InsertID(ctx, tx, ib); err != nil {
			return err
		}
	}
	s.logger.InfoContext(ctx, "Seeded default categories", log.FieldCount, len(defaultCategories))
	return nil
}

func (s *Seeder) seedProject(ctx context.Context, tx *sqlx.Tx) error {
	b := s.store.Dialect.Builder()

	var n int
	query, args, err := b.Select("COUNT(*)").From("projects").ToSql()
	if err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return err
	}
	if n > 0 {
		s.logger.DebugContext(ctx, "Projects already present, skipping", log.FieldCount, n)
		return nil
	}

	start := core.Today()
	end := start.AddDays(defaultProjectLength)
	ib := b.Insert("projects").
		Columns("name", "budget_cents", "start_date", "planned_end_date", "active").
		Values(defaultProjectName, int64(defaultBudgetCents), start.ISO(), end.ISO(), true)
	id, err := s.store.Dialect.InsertID(ctx, tx, ib)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Seeded default project",
		log.FieldProjectID, id, log.FieldAmountCents, int64(defaultBudgetCents))
	return nil
}
