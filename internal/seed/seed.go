package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/repository"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/utils"
)

const (
	nameHeader   = "姓名"
	handleHeader = "简称"
)

// ParseRoster 读取参赛名单 CSV，必须包含"姓名"列，"简称"列可选
// 参赛者编号按行的顺序从 0 开始
func ParseRoster(reader io.Reader) ([]domain.Player, error) {
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true

	// 读取表头
	headers, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("文件为空")
		}
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(headers[i], "\ufeff"))
	}

	nameColumn := slices.Index(headers, nameHeader)
	if nameColumn < 0 {
		return nil, fmt.Errorf("没有找到%s列", nameHeader)
	}
	handleColumn := slices.Index(headers, handleHeader)

	players := make([]domain.Player, 0)
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("读取第 %d 行失败: %w", len(players)+2, err)
		}

		fullName := strings.TrimSpace(row[nameColumn])
		if fullName == "" {
			// 跳过空行
			continue
		}

		handle := ""
		if handleColumn >= 0 && handleColumn < len(row) {
			handle = strings.TrimSpace(row[handleColumn])
		}
		if handle == "" {
			handle = utils.GenerateHandleFromChineseName(fullName)
		}

		players = append(players, domain.Player{
			Index:    int32(len(players)),
			FullName: fullName,
			Handle:   handle,
		})
	}

	return players, nil
}

// ImportRoster 从 CSV 文件导入参赛名单并替换赛事原有的名单
func ImportRoster(r *repository.Repository, tournamentID int64, path string) error {
	t, err := r.GetTournamentByID(tournamentID)
	if err != nil {
		return fmt.Errorf("获取赛事失败: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("打开文件失败: %w", err)
	}
	defer file.Close()

	players, err := ParseRoster(file)
	if err != nil {
		return err
	}

	if err := utils.ValidateRoster(players, t); err != nil {
		return err
	}

	if err := r.ReplacePlayers(t.ID, players); err != nil {
		return fmt.Errorf("插入参赛名单失败: %w", err)
	}

	slog.Info("导入参赛名单完成", "tournament", t.Name, "count", len(players))
	return nil
}
