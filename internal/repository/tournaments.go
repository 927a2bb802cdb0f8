package repository

import (
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

const tournamentColumns = `id, name, description, number_of_groups, size_of_groups, number_of_rounds, organizer_id, created_at, version`

func scanTournament(row rowScanner) (*domain.Tournament, error) {
	t := &domain.Tournament{}
	dst := []any{&t.ID, &t.Name, &t.Description, &t.NumberOfGroups, &t.SizeOfGroups, &t.NumberOfRounds, &t.OrganizerID, &t.CreatedAt, &t.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Repository) CreateTournament(t *domain.Tournament) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		INSERT INTO tournaments (name, description, number_of_groups, size_of_groups, number_of_rounds, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	args := []any{t.Name, t.Description, t.NumberOfGroups, t.SizeOfGroups, t.NumberOfRounds, t.OrganizerID}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.CreatedAt, &t.Version)
}

func (r *Repository) GetTournamentByID(id int64) (*domain.Tournament, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(r.dbpool.QueryRowContext(ctx, query, id))
}

// GetAllTournaments 返回所有赛事，organizerID 为 0 时不按组织者过滤
func (r *Repository) GetAllTournaments(organizerID int64) ([]*domain.Tournament, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT ` + tournamentColumns + ` FROM tournaments
		WHERE $1::bigint = 0 OR organizer_id = $1::bigint
		ORDER BY created_at DESC
	`
	rows, err := r.dbpool.QueryContext(ctx, query, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*domain.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tournaments, nil
}

// DeleteTournament 删除赛事，参赛名单和赛程通过外键级联删除
func (r *Repository) DeleteTournament(id int64) error {
	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	return err
}

// ReplacePlayers 用新的参赛名单整体替换旧名单
func (r *Repository) ReplacePlayers(tournamentID int64, players []domain.Player) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE tournament_id = $1`, tournamentID); err != nil {
		return err
	}

	query := `
		INSERT INTO players (tournament_id, person_index, full_name, handle)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	for i := range players {
		players[i].TournamentID = tournamentID
		args := []any{tournamentID, players[i].Index, players[i].FullName, players[i].Handle}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&players[i].ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetPlayersByTournamentID(tournamentID int64) ([]domain.Player, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT id, person_index, full_name, handle
		FROM players
		WHERE tournament_id = $1
		ORDER BY person_index
	`
	rows, err := r.dbpool.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]domain.Player, 0)
	for rows.Next() {
		player := domain.Player{TournamentID: tournamentID}
		if err := rows.Scan(&player.ID, &player.Index, &player.FullName, &player.Handle); err != nil {
			return nil, err
		}
		players = append(players, player)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return players, nil
}
