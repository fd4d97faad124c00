package config

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrissnell/stickplot/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const plotColumns = `name, server_url, dataset_id, start_date, end_date, depth_min, depth_max,
	instrument, speed_variable, direction_variable, response_format, speed_units, view,
	snapshot_time, color_scheme, color_palette, speed_bounds, colormap, color_min, color_max,
	depth_order, arrow_head, height_per_plot, output_filename, title, timeout`

// SchemaMigrations returns the migrations that build the plots schema.
func SchemaMigrations() *migrate.FSProvider {
	return migrate.NewFSProvider(migrations, "migrations", "")
}

var _ PlotStore = (*SQLiteProvider)(nil)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens dbPath and brings its schema up to date.
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	m := migrate.NewMigrator(db, SchemaMigrations(), nil)
	if err := m.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	plots, err := s.GetPlots()
	if err != nil {
		return nil, fmt.Errorf("failed to load plots: %w", err)
	}
	return &ConfigData{Plots: plots}, nil
}

// GetPlots returns every plot ordered by name
func (s *SQLiteProvider) GetPlots() ([]PlotData, error) {
	rows, err := s.db.Query(`SELECT ` + plotColumns + ` FROM plots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plots: %w", err)
	}
	defer rows.Close()

	var plots []PlotData
	for rows.Next() {
		p, err := scanPlot(rows)
		if err != nil {
			return nil, err
		}
		plots = append(plots, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plots: %w", err)
	}
	return plots, nil
}

// GetPlot returns a single plot by name
func (s *SQLiteProvider) GetPlot(name string) (*PlotData, error) {
	row := s.db.QueryRow(`SELECT `+plotColumns+` FROM plots WHERE name = ?`, name)
	p, err := scanPlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrPlotNotFound)
	}
	return p, err
}

// AddPlot inserts a new plot
func (s *SQLiteProvider) AddPlot(plot *PlotData) error {
	if _, err := s.GetPlot(plot.Name); err == nil {
		return fmt.Errorf("%q: %w", plot.Name, ErrPlotExists)
	}
	if err := validatePlot(plot); err != nil {
		return err
	}
	return s.insertPlot(s.db, plot)
}

// UpdatePlot replaces the stored settings of the named plot
func (s *SQLiteProvider) UpdatePlot(name string, plot *PlotData) error {
	if err := validatePlot(plot); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM plots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to update plot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrPlotNotFound)
	}
	if err := s.insertPlot(tx, plot); err != nil {
		return err
	}
	return tx.Commit()
}

// DeletePlot removes the named plot
func (s *SQLiteProvider) DeletePlot(name string) error {
	res, err := s.db.Exec(`DELETE FROM plots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete plot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrPlotNotFound)
	}
	return nil
}

// SaveConfig replaces every stored plot with the plots in configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := configData.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM plots`); err != nil {
		return fmt.Errorf("failed to clear existing plots: %w", err)
	}
	for i := range configData.Plots {
		if err := s.insertPlot(tx, &configData.Plots[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func validatePlot(p *PlotData) error {
	return (&ConfigData{Plots: []PlotData{*p}}).Validate()
}

func (s *SQLiteProvider) insertPlot(db migrate.DB, p *PlotData) error {
	palette, err := encodeList(p.ColorPalette)
	if err != nil {
		return err
	}
	bounds, err := encodeList(p.SpeedBounds)
	if err != nil {
		return err
	}

	_, err = db.Exec(`INSERT INTO plots (`+plotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.ServerURL, p.DatasetID, p.StartDate, p.EndDate, p.DepthRange[0], p.DepthRange[1],
		p.Instrument, nullString(p.SpeedVariable), nullString(p.DirectionVariable),
		nullString(p.ResponseFormat), nullString(p.SpeedUnits), nullString(p.View),
		nullString(p.SnapshotTime), nullString(p.ColorScheme), palette, bounds,
		nullString(p.Colormap), nullFloat64Ptr(p.ColorMin), nullFloat64Ptr(p.ColorMax),
		nullString(p.DepthOrder), p.ArrowHead, p.HeightPerPlot, nullString(p.OutputFilename),
		nullString(p.Title), nullString(p.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert plot %s: %w", p.Name, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPlot(row rowScanner) (*PlotData, error) {
	var p PlotData
	var depthMin, depthMax float64
	var speedVar, dirVar, format, units, view, snapshot, scheme sql.NullString
	var palette, bounds, colormap, order, output, title, timeout sql.NullString
	var colorMin, colorMax, height sql.NullFloat64

	err := row.Scan(
		&p.Name, &p.ServerURL, &p.DatasetID, &p.StartDate, &p.EndDate, &depthMin, &depthMax,
		&p.Instrument, &speedVar, &dirVar, &format, &units, &view,
		&snapshot, &scheme, &palette, &bounds, &colormap, &colorMin, &colorMax,
		&order, &p.ArrowHead, &height, &output, &title, &timeout,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan plot row: %w", err)
	}

	p.DepthRange = []float64{depthMin, depthMax}
	p.SpeedVariable = speedVar.String
	p.DirectionVariable = dirVar.String
	p.ResponseFormat = format.String
	p.SpeedUnits = units.String
	p.View = view.String
	p.SnapshotTime = snapshot.String
	p.ColorScheme = scheme.String
	p.Colormap = colormap.String
	p.DepthOrder = order.String
	p.OutputFilename = output.String
	p.Title = title.String
	p.Timeout = timeout.String
	p.HeightPerPlot = height.Float64

	if colorMin.Valid {
		v := colorMin.Float64
		p.ColorMin = &v
	}
	if colorMax.Valid {
		v := colorMax.Float64
		p.ColorMax = &v
	}
	if palette.Valid {
		if err := json.Unmarshal([]byte(palette.String), &p.ColorPalette); err != nil {
			return nil, fmt.Errorf("plot %s: bad color_palette column: %w", p.Name, err)
		}
	}
	if bounds.Valid {
		if err := json.Unmarshal([]byte(bounds.String), &p.SpeedBounds); err != nil {
			return nil, fmt.Errorf("plot %s: bad speed_bounds column: %w", p.Name, err)
		}
	}
	return &p, nil
}

func encodeList[T any](list []T) (sql.NullString, error) {
	if len(list) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// Helper functions for handling nullable values
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
