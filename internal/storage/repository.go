package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"repartition/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Cascade from affaires to beneficiaires relies on this pragma
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const affaireColumns = `id, numero, date_affaire, montant_total, montant_net,
	region, office, num_declaration, contrevenant, adresse, ifu,
	nature_infraction, marchandises, origine, valeur_marchandises,
	num_quittance, date_quittance, saisissants, intervenants, chefs,
	circonstances, notes, version, exported, created_at, updated_at`

func scanAffaire(row interface{ Scan(...any) error }) (core.Affaire, error) {
	var (
		a             core.Affaire
		dateAffaire   string
		dateQuittance string
		exported      int64
	)
	err := row.Scan(
		&a.ID, &a.Numero, &dateAffaire, &a.MontantTotal, &a.MontantNet,
		&a.Dossier.Region, &a.Dossier.Office, &a.Dossier.NumDeclaration,
		&a.Dossier.Contrevenant, &a.Dossier.Adresse, &a.Dossier.IFU,
		&a.Dossier.NatureInfraction, &a.Dossier.Marchandises, &a.Dossier.Origine,
		&a.Dossier.ValeurMarchandises, &a.Dossier.NumQuittance, &dateQuittance,
		&a.Dossier.Saisissants, &a.Dossier.Intervenants, &a.Dossier.Chefs,
		&a.Dossier.Circonstances, &a.Dossier.Notes,
		&a.Version, &exported, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return core.Affaire{}, err
	}
	a.Exported = exported != 0
	if a.DateAffaire, err = core.ParseDate(dateAffaire); err != nil {
		return core.Affaire{}, fmt.Errorf("parse date_affaire: %w", err)
	}
	if dateQuittance != "" {
		if a.Dossier.DateQuittance, err = core.ParseDate(dateQuittance); err != nil {
			return core.Affaire{}, fmt.Errorf("parse date_quittance: %w", err)
		}
	}
	return a, nil
}

// CreateAffaire inserts a new case record
func (r *SQLiteRepository) CreateAffaire(ctx context.Context, a core.Affaire) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO affaires (
			id, numero, date_affaire, montant_total, montant_net,
			region, office, num_declaration, contrevenant, adresse, ifu,
			nature_infraction, marchandises, origine, valeur_marchandises,
			num_quittance, date_quittance, saisissants, intervenants, chefs,
			circonstances, notes, version, exported, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, 0, ?, ?)`,
		a.ID, a.Numero, a.DateAffaire.String(), a.MontantTotal, a.MontantNet,
		a.Dossier.Region, a.Dossier.Office, a.Dossier.NumDeclaration,
		a.Dossier.Contrevenant, a.Dossier.Adresse, a.Dossier.IFU,
		a.Dossier.NatureInfraction, a.Dossier.Marchandises, a.Dossier.Origine,
		a.Dossier.ValeurMarchandises, a.Dossier.NumQuittance, a.Dossier.DateQuittance.String(),
		a.Dossier.Saisissants, a.Dossier.Intervenants, a.Dossier.Chefs,
		a.Dossier.Circonstances, a.Dossier.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("create affaire: %w", err)
	}

	slog.InfoContext(ctx, "Affaire saved to SQLite",
		"id", a.ID,
		"numero", a.Numero,
		"montant_net", a.MontantNet)

	return nil
}

// GetAffaire retrieves a single case by ID
func (r *SQLiteRepository) GetAffaire(ctx context.Context, id string) (core.Affaire, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+affaireColumns+" FROM affaires WHERE id = ?", id)
	a, err := scanAffaire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Affaire{}, core.ErrAffaireNotFound
	}
	if err != nil {
		return core.Affaire{}, fmt.Errorf("get affaire: %w", err)
	}
	return a, nil
}

// GetAffaireByNumero retrieves a single case by its case number
func (r *SQLiteRepository) GetAffaireByNumero(ctx context.Context, numero string) (core.Affaire, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+affaireColumns+" FROM affaires WHERE numero = ?", numero)
	a, err := scanAffaire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Affaire{}, core.ErrAffaireNotFound
	}
	if err != nil {
		return core.Affaire{}, fmt.Errorf("get affaire by numero: %w", err)
	}
	return a, nil
}

// ListAffaires returns cases inside the date range, newest first. A zero
// bound leaves that side of the range open.
func (r *SQLiteRepository) ListAffaires(ctx context.Context, from, to core.Date, limit int) ([]core.Affaire, error) {
	query := "SELECT " + affaireColumns + " FROM affaires WHERE 1=1"
	args := []any{}
	if !from.IsZero() {
		query += " AND date_affaire >= ?"
		args = append(args, from.String())
	}
	if !to.IsZero() {
		query += " AND date_affaire <= ?"
		args = append(args, to.String())
	}
	query += " ORDER BY date_affaire DESC, created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list affaires: %w", err)
	}
	defer rows.Close()

	var out []core.Affaire
	for rows.Next() {
		a, err := scanAffaire(rows)
		if err != nil {
			return nil, fmt.Errorf("scan affaire: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAffaire updates a case record and bumps its version so the
// export worker picks it up again
func (r *SQLiteRepository) UpdateAffaire(ctx context.Context, a core.Affaire) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE affaires SET
			numero = ?, date_affaire = ?, montant_total = ?, montant_net = ?,
			region = ?, office = ?, num_declaration = ?, contrevenant = ?,
			adresse = ?, ifu = ?, nature_infraction = ?, marchandises = ?,
			origine = ?, valeur_marchandises = ?, num_quittance = ?,
			date_quittance = ?, saisissants = ?, intervenants = ?, chefs = ?,
			circonstances = ?, notes = ?,
			version = version + 1, exported = 0, export_error = 0, updated_at = ?
		WHERE id = ?`,
		a.Numero, a.DateAffaire.String(), a.MontantTotal, a.MontantNet,
		a.Dossier.Region, a.Dossier.Office, a.Dossier.NumDeclaration,
		a.Dossier.Contrevenant, a.Dossier.Adresse, a.Dossier.IFU,
		a.Dossier.NatureInfraction, a.Dossier.Marchandises, a.Dossier.Origine,
		a.Dossier.ValeurMarchandises, a.Dossier.NumQuittance, a.Dossier.DateQuittance.String(),
		a.Dossier.Saisissants, a.Dossier.Intervenants, a.Dossier.Chefs,
		a.Dossier.Circonstances, a.Dossier.Notes,
		time.Now().UTC(), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update affaire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update affaire rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrAffaireNotFound
	}
	return nil
}

// DeleteAffaire removes a case and, through the cascade, its beneficiaries
func (r *SQLiteRepository) DeleteAffaire(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM affaires WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete affaire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete affaire rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrAffaireNotFound
	}

	slog.InfoContext(ctx, "Affaire deleted", "id", id)
	return nil
}

// ListBeneficiaries returns the stored distribution of a case in its
// display order
func (r *SQLiteRepository) ListBeneficiaries(ctx context.Context, affaireID string) ([]core.Beneficiary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT nom, categorie, montant, pourcentage
		FROM beneficiaires WHERE affaire_id = ? ORDER BY position`, affaireID)
	if err != nil {
		return nil, fmt.Errorf("list beneficiaires: %w", err)
	}
	defer rows.Close()

	var out []core.Beneficiary
	for rows.Next() {
		var b core.Beneficiary
		if err := rows.Scan(&b.Nom, &b.Categorie, &b.Montant, &b.Pourcentage); err != nil {
			return nil, fmt.Errorf("scan beneficiaire: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ReplaceBeneficiaries swaps the full beneficiary list of a case in one
// transaction and bumps the case version
func (r *SQLiteRepository) ReplaceBeneficiaries(ctx context.Context, affaireID string, beneficiaires []core.Beneficiary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE affaires SET version = version + 1, exported = 0, export_error = 0, updated_at = ?
		WHERE id = ?`, time.Now().UTC(), affaireID)
	if err != nil {
		return fmt.Errorf("bump affaire version: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("bump affaire rows affected: %w", err)
	} else if n == 0 {
		return core.ErrAffaireNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM beneficiaires WHERE affaire_id = ?", affaireID); err != nil {
		return fmt.Errorf("delete old beneficiaires: %w", err)
	}

	for i, b := range beneficiaires {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO beneficiaires (affaire_id, position, nom, categorie, montant, pourcentage)
			VALUES (?, ?, ?, ?, ?, ?)`,
			affaireID, i, b.Nom, string(b.Categorie), b.Montant, b.Pourcentage); err != nil {
			return fmt.Errorf("insert beneficiaire %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Beneficiaires replaced",
		"affaire_id", affaireID,
		"count", len(beneficiaires))

	return nil
}

// Fonds implements allocation.ConfigProvider
func (r *SQLiteRepository) Fonds(ctx context.Context) ([]core.Fund, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nom, poids FROM fonds ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list fonds: %w", err)
	}
	defer rows.Close()

	var out []core.Fund
	for rows.Next() {
		var (
			f     core.Fund
			poids string
		)
		if err := rows.Scan(&f.ID, &f.Nom, &poids); err != nil {
			return nil, fmt.Errorf("scan fond: %w", err)
		}
		if f.Poids, err = decimal.NewFromString(poids); err != nil {
			return nil, fmt.Errorf("parse fond poids %q: %w", poids, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreateFond inserts a configured fund
func (r *SQLiteRepository) CreateFond(ctx context.Context, f core.Fund) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO fonds (nom, poids) VALUES (?, ?)", f.Nom, f.Poids.String())
	if err != nil {
		return 0, fmt.Errorf("create fond: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("fond last insert id: %w", err)
	}
	return id, nil
}

// UpdateFond updates a configured fund
func (r *SQLiteRepository) UpdateFond(ctx context.Context, f core.Fund) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE fonds SET nom = ?, poids = ? WHERE id = ?", f.Nom, f.Poids.String(), f.ID)
	if err != nil {
		return fmt.Errorf("update fond: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update fond rows affected: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteFond removes a configured fund
func (r *SQLiteRepository) DeleteFond(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM fonds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete fond: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete fond rows affected: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Chefs implements allocation.ConfigProvider
func (r *SQLiteRepository) Chefs(ctx context.Context) ([]core.Chief, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, nom, poids FROM chefs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list chefs: %w", err)
	}
	defer rows.Close()

	var out []core.Chief
	for rows.Next() {
		var (
			c     core.Chief
			poids string
		)
		if err := rows.Scan(&c.ID, &c.Nom, &poids); err != nil {
			return nil, fmt.Errorf("scan chef: %w", err)
		}
		if c.Poids, err = decimal.NewFromString(poids); err != nil {
			return nil, fmt.Errorf("parse chef poids %q: %w", poids, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateChef inserts a configured chief
func (r *SQLiteRepository) CreateChef(ctx context.Context, c core.Chief) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO chefs (nom, poids) VALUES (?, ?)", c.Nom, c.Poids.String())
	if err != nil {
		return 0, fmt.Errorf("create chef: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("chef last insert id: %w", err)
	}
	return id, nil
}

// UpdateChef updates a configured chief
func (r *SQLiteRepository) UpdateChef(ctx context.Context, c core.Chief) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE chefs SET nom = ?, poids = ? WHERE id = ?", c.Nom, c.Poids.String(), c.ID)
	if err != nil {
		return fmt.Errorf("update chef: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update chef rows affected: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteChef removes a configured chief
func (r *SQLiteRepository) DeleteChef(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chefs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chef: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete chef rows affected: %w", err)
	} else if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Stats aggregates cases inside a date range
type Stats struct {
	NbAffaires     int64            `json:"nb_affaires"`
	TotalNet       int64            `json:"total_net"`
	TotalDistribue int64            `json:"total_distribue"`
	TotalEcart     int64            `json:"total_ecart"`
	ParCategorie   map[string]int64 `json:"par_categorie"`
	ParMois        []MonthlyStat    `json:"par_mois"`
}

// MonthlyStat is one point of the monthly evolution, keyed YYYY-MM.
type MonthlyStat struct {
	Mois       string `json:"mois"`
	NbAffaires int64  `json:"nb_affaires"`
	TotalNet   int64  `json:"total_net"`
}

// GetStats computes aggregate figures over the given date range. A zero
// bound leaves that side of the range open.
func (r *SQLiteRepository) GetStats(ctx context.Context, from, to core.Date) (Stats, error) {
	stats := Stats{ParCategorie: make(map[string]int64)}

	where := " WHERE 1=1"
	args := []any{}
	if !from.IsZero() {
		where += " AND date_affaire >= ?"
		args = append(args, from.String())
	}
	if !to.IsZero() {
		where += " AND date_affaire <= ?"
		args = append(args, to.String())
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(montant_net), 0) FROM affaires"+where, args...)
	if err := row.Scan(&stats.NbAffaires, &stats.TotalNet); err != nil {
		return stats, fmt.Errorf("stats affaires: %w", err)
	}

	row = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(b.montant), 0)
		FROM beneficiaires b JOIN affaires a ON a.id = b.affaire_id`+where, args...)
	if err := row.Scan(&stats.TotalDistribue); err != nil {
		return stats, fmt.Errorf("stats distribue: %w", err)
	}
	stats.TotalEcart = stats.TotalNet - stats.TotalDistribue

	rows, err := r.db.QueryContext(ctx, `
		SELECT b.categorie, COALESCE(SUM(b.montant), 0)
		FROM beneficiaires b JOIN affaires a ON a.id = b.affaire_id`+where+`
		GROUP BY b.categorie`, args...)
	if err != nil {
		return stats, fmt.Errorf("stats par categorie: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			categorie string
			montant   int64
		)
		if err := rows.Scan(&categorie, &montant); err != nil {
			return stats, fmt.Errorf("scan stats categorie: %w", err)
		}
		stats.ParCategorie[categorie] = montant
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	// date_affaire is stored as YYYY-MM-DD text, so the month key is a prefix.
	monthRows, err := r.db.QueryContext(ctx, `
		SELECT substr(date_affaire, 1, 7), COUNT(*), COALESCE(SUM(montant_net), 0)
		FROM affaires`+where+`
		GROUP BY 1 ORDER BY 1`, args...)
	if err != nil {
		return stats, fmt.Errorf("stats par mois: %w", err)
	}
	defer monthRows.Close()

	for monthRows.Next() {
		var m MonthlyStat
		if err := monthRows.Scan(&m.Mois, &m.NbAffaires, &m.TotalNet); err != nil {
			return stats, fmt.Errorf("scan stats mois: %w", err)
		}
		stats.ParMois = append(stats.ParMois, m)
	}
	return stats, monthRows.Err()
}

// PendingExportAffaire represents minimal data needed for export queue messages
type PendingExportAffaire struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// GetPendingExportAffaires returns cases whose latest version has not
// been exported yet
func (r *SQLiteRepository) GetPendingExportAffaires(ctx context.Context, limit int) ([]PendingExportAffaire, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, version, created_at FROM affaires
		WHERE exported = 0 AND export_error = 0
		ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending export affaires: %w", err)
	}
	defer rows.Close()

	var out []PendingExportAffaire
	for rows.Next() {
		var p PendingExportAffaire
		if err := rows.Scan(&p.ID, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export affaire: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkExported marks a case version as successfully exported. A stale
// version is left pending so the newer state gets exported too.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string, version int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE affaires SET exported = 1 WHERE id = ? AND version = ?", id, version)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Affaire marked as exported", "id", id, "version", version)
	return nil
}

// MarkExportError marks a case as having export errors
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE affaires SET export_error = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}

	slog.WarnContext(ctx, "Affaire marked with export error", "id", id)
	return nil
}
