package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

// GenerateHandleFromChineseName 将姓名转换为拼音，作为参赛者在分组表中显示的简称
// 例如 "王小明" -> "wang.xiaoming"，非中文姓名则直接转为小写并去掉空白
func GenerateHandleFromChineseName(fullName string) string {
	pinyinArray := pinyin.LazyConvert(fullName, nil)
	if len(pinyinArray) == 0 {
		return strings.ToLower(strings.Join(strings.Fields(fullName), "."))
	}

	if len(pinyinArray) == 1 {
		return pinyinArray[0]
	}
	return pinyinArray[0] + "." + strings.Join(pinyinArray[1:], "")
}

// GenerateUsernameFromChineseName 使用姓名拼音的前缀加随机数字生成用户名
func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleOrganizer,
		IsActive:     true,
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var tournamentSuffixes = []string{"春季联赛", "夏季邀请赛", "秋季友谊赛", "冬季训练营", "周末混合赛"}

// GenerateRandomTournament 随机生成一个赛事，小组人数为 2~5，小组数量为 2~8，轮数为 2~6
func GenerateRandomTournament(organizerID int64) *domain.Tournament {
	return &domain.Tournament{
		Name:           fmt.Sprintf("%s%s-%03d", commonSurnames[rand.Intn(len(commonSurnames))], tournamentSuffixes[rand.Intn(len(tournamentSuffixes))], rand.Intn(1000)),
		Description:    "随机生成的赛事",
		NumberOfGroups: int32(rand.Intn(7) + 2),
		SizeOfGroups:   int32(rand.Intn(4) + 2),
		NumberOfRounds: int32(rand.Intn(5) + 2),
		OrganizerID:    organizerID,
	}
}

// GenerateRandomRoster 为赛事生成恰好 TotalPeople 个随机参赛者
func GenerateRandomRoster(t *domain.Tournament) []domain.Player {
	players := make([]domain.Player, t.TotalPeople())
	for i := range players {
		fullName := GenerateRandomChineseName()
		players[i] = domain.Player{
			TournamentID: t.ID,
			Index:        int32(i),
			FullName:     fullName,
			Handle:       GenerateHandleFromChineseName(fullName),
		}
	}
	return players
}
