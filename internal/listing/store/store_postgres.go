package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"coliving/internal/listing/models"
	pgplatform "coliving/internal/platform/postgres"
	id "coliving/pkg/domain"
	"coliving/pkg/platform/paging"
	"coliving/pkg/platform/sentinel"
)

// Postgres persists listings in PostgreSQL. Amenity links live in join tables
// and are rewritten on every update.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const spaceColumns = `cs.id, cs.owner_id, cs.title, cs.description, cs.housing_type, cs.room_count,
	cs.total_area_m2, cs.capacity_max, cs.city_id, cs.is_active, cs.created_at, cs.updated_at,
	ARRAY(SELECT a.amenity_id::text FROM coliving_space_amenities a WHERE a.coliving_space_id = cs.id ORDER BY a.amenity_id)`

const roomColumns = `ps.id, ps.coliving_space_id, ps.title, ps.description, ps.capacity, ps.area_m2,
	ps.price_per_month, ps.is_active, ps.created_at, ps.updated_at,
	ARRAY(SELECT a.amenity_id::text FROM private_space_amenities a WHERE a.private_space_id = ps.id ORDER BY a.amenity_id)`

func scanSpace(row rowScanner) (*models.ColivingSpace, error) {
	var (
		spaceID, ownerID uuid.UUID
		cityID           uuid.NullUUID
		updatedAt        sql.NullTime
		amenities        []string
		s                models.ColivingSpace
	)
	err := row.Scan(&spaceID, &ownerID, &s.Title, &s.Description, &s.HousingType, &s.RoomCount,
		&s.TotalAreaM2, &s.CapacityMax, &cityID, &s.IsActive, &s.CreatedAt, &updatedAt,
		pq.Array(&amenities))
	if err != nil {
		return nil, err
	}
	s.ID = id.ColivingSpaceID(spaceID)
	s.OwnerID = id.UserID(ownerID)
	if cityID.Valid {
		c := id.CityID(cityID.UUID)
		s.CityID = &c
	}
	if updatedAt.Valid {
		s.UpdatedAt = &updatedAt.Time
	}
	if s.AmenityIDs, err = parseAmenityIDs(amenities); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanRoom(row rowScanner) (*models.PrivateSpace, error) {
	var (
		roomID, spaceID uuid.UUID
		updatedAt       sql.NullTime
		amenities       []string
		p               models.PrivateSpace
	)
	err := row.Scan(&roomID, &spaceID, &p.Title, &p.Description, &p.Capacity, &p.AreaM2,
		&p.PricePerMonth, &p.IsActive, &p.CreatedAt, &updatedAt, pq.Array(&amenities))
	if err != nil {
		return nil, err
	}
	p.ID = id.PrivateSpaceID(roomID)
	p.ColivingSpaceID = id.ColivingSpaceID(spaceID)
	if updatedAt.Valid {
		p.UpdatedAt = &updatedAt.Time
	}
	if p.AmenityIDs, err = parseAmenityIDs(amenities); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseAmenityIDs(raw []string) ([]id.AmenityID, error) {
	out := make([]id.AmenityID, 0, len(raw))
	for _, s := range raw {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse amenity id %q: %w", s, err)
		}
		out = append(out, id.AmenityID(u))
	}
	return out, nil
}

func amenityArray(ids []id.AmenityID) any {
	out := make([]string, 0, len(ids))
	for _, a := range ids {
		out = append(out, a.String())
	}
	return pq.Array(out)
}

func nullCity(c *id.CityID) uuid.NullUUID {
	if c == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c), Valid: true}
}

func translateWrite(err error, what string) error {
	switch {
	case pgplatform.IsUniqueViolation(err):
		return fmt.Errorf("%s: %w", what, sentinel.ErrConflict)
	case pgplatform.IsForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", what, sentinel.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// -----------------------------------------------------------------------------
// Coliving spaces
// -----------------------------------------------------------------------------

func (s *Postgres) CreateColivingSpace(ctx context.Context, space *models.ColivingSpace) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		conn := pgplatform.Conn(ctx, s.db)
		_, err := conn.ExecContext(ctx, `
			INSERT INTO coliving_spaces (id, owner_id, title, description, housing_type, room_count,
				total_area_m2, capacity_max, city_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.UUID(space.ID), uuid.UUID(space.OwnerID), space.Title, space.Description, space.HousingType,
			space.RoomCount, space.TotalAreaM2, space.CapacityMax, nullCity(space.CityID), space.IsActive,
			space.CreatedAt, space.UpdatedAt)
		if err != nil {
			return translateWrite(err, "insert coliving space")
		}
		return s.replaceAmenities(ctx, "coliving_space_amenities", "coliving_space_id", uuid.UUID(space.ID), space.AmenityIDs)
	})
}

func (s *Postgres) FindColivingSpace(ctx context.Context, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error) {
	return s.findSpace(ctx, spaceID, "")
}

// LockColivingSpace loads the row with FOR UPDATE. It must run inside RunInTx.
func (s *Postgres) LockColivingSpace(ctx context.Context, spaceID id.ColivingSpaceID) (*models.ColivingSpace, error) {
	return s.findSpace(ctx, spaceID, " FOR UPDATE OF cs")
}

func (s *Postgres) findSpace(ctx context.Context, spaceID id.ColivingSpaceID, suffix string) (*models.ColivingSpace, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+spaceColumns+` FROM coliving_spaces cs WHERE cs.id = $1`+suffix, uuid.UUID(spaceID))
	space, err := scanSpace(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find coliving space: %w", err)
	}
	return space, nil
}

func (s *Postgres) UpdateColivingSpace(ctx context.Context, space *models.ColivingSpace) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
			UPDATE coliving_spaces SET title = $2, description = $3, housing_type = $4, room_count = $5,
				total_area_m2 = $6, capacity_max = $7, city_id = $8, is_active = $9, updated_at = $10
			WHERE id = $1`,
			uuid.UUID(space.ID), space.Title, space.Description, space.HousingType, space.RoomCount,
			space.TotalAreaM2, space.CapacityMax, nullCity(space.CityID), space.IsActive, space.UpdatedAt)
		if err != nil {
			return translateWrite(err, "update coliving space")
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return s.replaceAmenities(ctx, "coliving_space_amenities", "coliving_space_id", uuid.UUID(space.ID), space.AmenityIDs)
	})
}

func (s *Postgres) ListColivingSpaces(ctx context.Context, filter models.SpaceFilter, page paging.Page) ([]*models.ColivingSpace, int, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.OwnerID != nil {
		add("cs.owner_id = $%d", uuid.UUID(*filter.OwnerID))
	}
	if filter.CityID != nil {
		add("cs.city_id = $%d", uuid.UUID(*filter.CityID))
	}
	if filter.HousingType != "" {
		add("cs.housing_type = $%d", filter.HousingType)
	}
	if filter.IsActive != nil {
		add("cs.is_active = $%d", *filter.IsActive)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM coliving_spaces cs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coliving spaces: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT `+spaceColumns+` FROM coliving_spaces cs`+clause+
		` ORDER BY cs.created_at, cs.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list coliving spaces: %w", err)
	}
	defer rows.Close()
	spaces, err := collect(rows, scanSpace)
	if err != nil {
		return nil, 0, fmt.Errorf("list coliving spaces: %w", err)
	}
	return spaces, total, nil
}

func (s *Postgres) ListColivingSpacesByAmenity(ctx context.Context, amenityID id.AmenityID) ([]*models.ColivingSpace, error) {
	rows, err := pgplatform.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT `+spaceColumns+`
		FROM coliving_spaces cs
		JOIN coliving_space_amenities link ON link.coliving_space_id = cs.id
		WHERE link.amenity_id = $1
		ORDER BY cs.id`, uuid.UUID(amenityID))
	if err != nil {
		return nil, fmt.Errorf("list coliving spaces by amenity: %w", err)
	}
	defer rows.Close()
	return collect(rows, scanSpace)
}

// -----------------------------------------------------------------------------
// Private spaces
// -----------------------------------------------------------------------------

func (s *Postgres) CreatePrivateSpace(ctx context.Context, room *models.PrivateSpace) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
			INSERT INTO private_spaces (id, coliving_space_id, title, description, capacity, area_m2,
				price_per_month, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.UUID(room.ID), uuid.UUID(room.ColivingSpaceID), room.Title, room.Description, room.Capacity,
			room.AreaM2, room.PricePerMonth, room.IsActive, room.CreatedAt, room.UpdatedAt)
		if err != nil {
			if pgplatform.IsForeignKeyViolation(err) {
				return fmt.Errorf("insert private space: %w", sentinel.ErrNotFound)
			}
			return translateWrite(err, "insert private space")
		}
		return s.replaceAmenities(ctx, "private_space_amenities", "private_space_id", uuid.UUID(room.ID), room.AmenityIDs)
	})
}

func (s *Postgres) FindPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (*models.PrivateSpace, error) {
	return s.findRoom(ctx, roomID, "")
}

func (s *Postgres) LockPrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) (*models.PrivateSpace, error) {
	return s.findRoom(ctx, roomID, " FOR UPDATE OF ps")
}

func (s *Postgres) findRoom(ctx context.Context, roomID id.PrivateSpaceID, suffix string) (*models.PrivateSpace, error) {
	row := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM private_spaces ps WHERE ps.id = $1`+suffix, uuid.UUID(roomID))
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find private space: %w", err)
	}
	return room, nil
}

func (s *Postgres) UpdatePrivateSpace(ctx context.Context, room *models.PrivateSpace) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `
			UPDATE private_spaces SET title = $2, description = $3, capacity = $4, area_m2 = $5,
				price_per_month = $6, is_active = $7, updated_at = $8
			WHERE id = $1`,
			uuid.UUID(room.ID), room.Title, room.Description, room.Capacity, room.AreaM2,
			room.PricePerMonth, room.IsActive, room.UpdatedAt)
		if err != nil {
			return translateWrite(err, "update private space")
		}
		if err := requireRow(res); err != nil {
			return err
		}
		return s.replaceAmenities(ctx, "private_space_amenities", "private_space_id", uuid.UUID(room.ID), room.AmenityIDs)
	})
}

// DeletePrivateSpace returns sentinel.ErrConflict while reservations still
// reference the room.
func (s *Postgres) DeletePrivateSpace(ctx context.Context, roomID id.PrivateSpaceID) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM private_spaces WHERE id = $1`, uuid.UUID(roomID))
	if err != nil {
		return translateWrite(err, "delete private space")
	}
	return requireRow(res)
}

func (s *Postgres) ListPrivateSpaces(ctx context.Context, filter models.RoomFilter, page paging.Page) ([]*models.PrivateSpace, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.ColivingSpaceID != nil {
		args = append(args, uuid.UUID(*filter.ColivingSpaceID))
		where = append(where, fmt.Sprintf("ps.coliving_space_id = $%d", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		where = append(where, fmt.Sprintf("ps.is_active = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM private_spaces ps`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count private spaces: %w", err)
	}

	args = append(args, page.Limit(), page.Offset())
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT `+roomColumns+` FROM private_spaces ps`+clause+
		` ORDER BY ps.created_at, ps.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list private spaces: %w", err)
	}
	defer rows.Close()
	rooms, err := collect(rows, scanRoom)
	if err != nil {
		return nil, 0, fmt.Errorf("list private spaces: %w", err)
	}
	return rooms, total, nil
}

// -----------------------------------------------------------------------------
// Catalog
// -----------------------------------------------------------------------------

func (s *Postgres) CreateCity(ctx context.Context, city *models.City) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO coliving_cities (id, name) VALUES ($1, $2)`, uuid.UUID(city.ID), city.Name)
	if err != nil {
		return translateWrite(err, "insert city")
	}
	return nil
}

func (s *Postgres) FindCity(ctx context.Context, cityID id.CityID) (*models.City, error) {
	var (
		raw  uuid.UUID
		city models.City
	)
	err := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name FROM coliving_cities WHERE id = $1`, uuid.UUID(cityID)).Scan(&raw, &city.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find city: %w", err)
	}
	city.ID = id.CityID(raw)
	return &city, nil
}

func (s *Postgres) UpdateCity(ctx context.Context, city *models.City) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE coliving_cities SET name = $2 WHERE id = $1`, uuid.UUID(city.ID), city.Name)
	if err != nil {
		return translateWrite(err, "update city")
	}
	return requireRow(res)
}

func (s *Postgres) DeleteCity(ctx context.Context, cityID id.CityID) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM coliving_cities WHERE id = $1`, uuid.UUID(cityID))
	if err != nil {
		return translateWrite(err, "delete city")
	}
	return requireRow(res)
}

func (s *Postgres) ListCities(ctx context.Context, page paging.Page) ([]*models.City, int, error) {
	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM coliving_cities`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cities: %w", err)
	}
	rows, err := conn.QueryContext(ctx,
		`SELECT id, name FROM coliving_cities ORDER BY name LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()
	cities, err := collect(rows, func(row rowScanner) (*models.City, error) {
		var (
			raw uuid.UUID
			c   models.City
		)
		if err := row.Scan(&raw, &c.Name); err != nil {
			return nil, err
		}
		c.ID = id.CityID(raw)
		return &c, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list cities: %w", err)
	}
	return cities, total, nil
}

func scanAmenity(row rowScanner) (*models.Amenity, error) {
	var (
		raw uuid.UUID
		a   models.Amenity
	)
	if err := row.Scan(&raw, &a.Name, &a.Description, &a.AmenityType); err != nil {
		return nil, err
	}
	a.ID = id.AmenityID(raw)
	return &a, nil
}

func (s *Postgres) CreateAmenity(ctx context.Context, amenity *models.Amenity) error {
	_, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO amenities (id, name, description, amenity_type) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(amenity.ID), amenity.Name, amenity.Description, amenity.AmenityType)
	if err != nil {
		return translateWrite(err, "insert amenity")
	}
	return nil
}

func (s *Postgres) FindAmenity(ctx context.Context, amenityID id.AmenityID) (*models.Amenity, error) {
	a, err := scanAmenity(pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, description, amenity_type FROM amenities WHERE id = $1`, uuid.UUID(amenityID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find amenity: %w", err)
	}
	return a, nil
}

func (s *Postgres) UpdateAmenity(ctx context.Context, amenity *models.Amenity) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE amenities SET name = $2, description = $3, amenity_type = $4 WHERE id = $1`,
		uuid.UUID(amenity.ID), amenity.Name, amenity.Description, amenity.AmenityType)
	if err != nil {
		return translateWrite(err, "update amenity")
	}
	return requireRow(res)
}

// DeleteAmenity cascades to the join tables.
func (s *Postgres) DeleteAmenity(ctx context.Context, amenityID id.AmenityID) error {
	res, err := pgplatform.Conn(ctx, s.db).ExecContext(ctx, `DELETE FROM amenities WHERE id = $1`, uuid.UUID(amenityID))
	if err != nil {
		return translateWrite(err, "delete amenity")
	}
	return requireRow(res)
}

func (s *Postgres) ListAmenities(ctx context.Context, page paging.Page) ([]*models.Amenity, int, error) {
	conn := pgplatform.Conn(ctx, s.db)
	var total int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM amenities`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count amenities: %w", err)
	}
	rows, err := conn.QueryContext(ctx,
		`SELECT id, name, description, amenity_type FROM amenities ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list amenities: %w", err)
	}
	defer rows.Close()
	amenities, err := collect(rows, scanAmenity)
	if err != nil {
		return nil, 0, fmt.Errorf("list amenities: %w", err)
	}
	return amenities, total, nil
}

func (s *Postgres) MissingAmenities(ctx context.Context, amenityIDs []id.AmenityID) ([]id.AmenityID, error) {
	if len(amenityIDs) == 0 {
		return nil, nil
	}
	rows, err := pgplatform.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT x::text FROM unnest($1::uuid[]) AS x
		WHERE NOT EXISTS (SELECT 1 FROM amenities a WHERE a.id = x)`, amenityArray(amenityIDs))
	if err != nil {
		return nil, fmt.Errorf("check amenities: %w", err)
	}
	defer rows.Close()
	var raw []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("check amenities: %w", err)
		}
		raw = append(raw, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("check amenities: %w", err)
	}
	return parseAmenityIDs(raw)
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func (s *Postgres) replaceAmenities(ctx context.Context, table, column string, ownerID uuid.UUID, amenities []id.AmenityID) error {
	conn := pgplatform.Conn(ctx, s.db)
	if _, err := conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE `+column+` = $1`, ownerID); err != nil {
		return fmt.Errorf("clear amenities: %w", err)
	}
	if len(amenities) == 0 {
		return nil
	}
	_, err := conn.ExecContext(ctx,
		`INSERT INTO `+table+` (`+column+`, amenity_id) SELECT $1, unnest($2::uuid[]) ON CONFLICT DO NOTHING`,
		ownerID, amenityArray(amenities))
	if err != nil {
		if pgplatform.IsForeignKeyViolation(err) {
			return fmt.Errorf("link amenities: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("link amenities: %w", err)
	}
	return nil
}

// inTx joins the caller's transaction or opens one for multi-statement writes.
func (s *Postgres) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return pgplatform.NewTxRunner(s.db).RunInTx(ctx, fn)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ReferencesUser reports whether the user owns any coliving space.
func (s *Postgres) ReferencesUser(ctx context.Context, userID id.UserID) (bool, error) {
	var found bool
	err := pgplatform.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM coliving_spaces WHERE owner_id = $1)`, uuid.UUID(userID)).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check space owners: %w", err)
	}
	return found, nil
}
