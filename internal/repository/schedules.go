package repository

import (
	"database/sql"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

// InsertSchedule 保存赛事的赛程，同一赛事之前的赛程会被覆盖
func (r *Repository) InsertSchedule(schedule *domain.Schedule) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的赛程删除
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedules WHERE tournament_id = $1`, schedule.TournamentID); err != nil {
		return err
	}

	query := `
		INSERT INTO schedules (tournament_id, source)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, schedule.TournamentID, schedule.Source).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.Version); err != nil {
		return err
	}

	for _, round := range schedule.Rounds {
		query := `
			INSERT INTO schedule_rounds (schedule_id, round_index, round_score)
			VALUES ($1, $2, $3)
			RETURNING id
		`

		var roundID int64
		if err := tx.QueryRowContext(ctx, query, schedule.ID, round.Round, round.RoundScore).Scan(&roundID); err != nil {
			return err
		}

		for groupIndex, group := range round.Groups {
			query := `
				INSERT INTO schedule_groups (schedule_round_id, group_index)
				VALUES ($1, $2)
				RETURNING id
			`

			var groupID int64
			if err := tx.QueryRowContext(ctx, query, roundID, groupIndex).Scan(&groupID); err != nil {
				return err
			}

			for position, person := range group {
				query := `
					INSERT INTO schedule_group_members (schedule_group_id, position, person_index)
					VALUES ($1, $2, $3)
				`

				if _, err := tx.ExecContext(ctx, query, groupID, position, person); err != nil {
					return err
				}
			}
		}
	}

	return tx.Commit()
}

// GetScheduleByTournamentID 返回赛事的赛程，不存在时返回 sql.ErrNoRows
func (r *Repository) GetScheduleByTournamentID(tournamentID int64) (*domain.Schedule, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT
			s.id,
			s.source,
			sr.round_index,
			sr.round_score,
			sg.group_index,
			sgm.position,
			sgm.person_index,
			s.created_at,
			s.version
		FROM schedules s
		LEFT JOIN schedule_rounds sr ON s.id = sr.schedule_id
		LEFT JOIN schedule_groups sg ON sr.id = sg.schedule_round_id
		LEFT JOIN schedule_group_members sgm ON sg.id = sgm.schedule_group_id
		WHERE s.tournament_id = $1
		ORDER BY sr.round_index, sg.group_index, sgm.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedule := &domain.Schedule{
		TournamentID: tournamentID,
	}

	roundsMap := make(map[int32]*domain.ScheduleRound) // roundIndex -> round
	groupsMap := make(map[int32]map[int32][]int32)     // roundIndex -> groupIndex -> members

	for rows.Next() {
		var row struct {
			scheduleID  int64
			source      domain.ScheduleSource
			roundIndex  sql.NullInt32
			roundScore  sql.NullInt64
			groupIndex  sql.NullInt32
			position    sql.NullInt32
			personIndex sql.NullInt32
			createdAt   time.Time
			version     int32
		}

		dst := []any{
			&row.scheduleID,
			&row.source,
			&row.roundIndex,
			&row.roundScore,
			&row.groupIndex,
			&row.position,
			&row.personIndex,
			&row.createdAt,
			&row.version,
		}

		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		schedule.ID = row.scheduleID
		schedule.Source = row.source
		schedule.CreatedAt = row.createdAt
		schedule.Version = row.version

		if !row.roundIndex.Valid {
			// 赛程没有任何轮次，业务上不会出现
			continue
		}

		if _, exists := roundsMap[row.roundIndex.Int32]; !exists {
			roundsMap[row.roundIndex.Int32] = &domain.ScheduleRound{
				Round:      row.roundIndex.Int32,
				RoundScore: row.roundScore.Int64,
			}
			groupsMap[row.roundIndex.Int32] = make(map[int32][]int32)
		}

		if !row.groupIndex.Valid || !row.personIndex.Valid {
			continue
		}

		// 查询已按 position 排序，这里直接追加即可保持组内顺序
		groupsMap[row.roundIndex.Int32][row.groupIndex.Int32] = append(groupsMap[row.roundIndex.Int32][row.groupIndex.Int32], row.personIndex.Int32)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if schedule.ID == 0 {
		return nil, sql.ErrNoRows
	}

	// 组装结果，map 的遍历顺序不固定，需要按下标排序
	schedule.Rounds = make([]domain.ScheduleRound, 0, len(roundsMap))
	for roundIndex, round := range roundsMap {
		groupIndexes := make([]int32, 0, len(groupsMap[roundIndex]))
		for groupIndex := range groupsMap[roundIndex] {
			groupIndexes = append(groupIndexes, groupIndex)
		}
		sort.Slice(groupIndexes, func(i, j int) bool { return groupIndexes[i] < groupIndexes[j] })

		round.Groups = make([][]int32, 0, len(groupIndexes))
		for _, groupIndex := range groupIndexes {
			round.Groups = append(round.Groups, groupsMap[roundIndex][groupIndex])
		}
		schedule.Rounds = append(schedule.Rounds, *round)
	}
	sort.Slice(schedule.Rounds, func(i, j int) bool { return schedule.Rounds[i].Round < schedule.Rounds[j].Round })

	return schedule, nil
}
