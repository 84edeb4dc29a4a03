package host

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/palemoky/lingo-monopoly/internal/engine"
	"github.com/palemoky/lingo-monopoly/internal/game"
	"github.com/palemoky/lingo-monopoly/internal/storage"
)

const helpText = `命令：
  new <玩家1> <玩家2> [...]   创建对局（2-4 人）
  new <人数>                  用随机昵称创建对局
  resume <会话ID>             从快照恢复对局
  use <会话ID>                切换当前对局
  roll <点数>                 当前玩家掷骰
  path main|alt               选择主路线或支线
  option <选项>               vocabulary / scenario / decline / take_shortcut
  answer <回答>               回答当前挑战
  forfeit                     放弃当前挑战
  card <动作> [数值] [目标]   扫描卡牌，例如 card move -2、card teleport null 2
  ack                         确认机会格
  bankrupt <玩家ID>           宣告破产
  abandon                     放弃对局
  state                       查看当前状态
  rank [total|daily|weekly]   查看排行榜
  sessions                    列出可恢复的对局
  history <玩家>              查看玩家最近完成的对局
  delete <会话ID>             删除已结束对局的历程
  flush                       重试写入历程
  help                        显示帮助
  quit                        退出`

var errQuit = errors.New("quit")

// Console 本地多人轮流操作的命令行
type Console struct {
	host    *Host
	out     io.Writer
	current string // 当前会话 ID
}

// NewConsole 创建命令行
func NewConsole(h *Host, out io.Writer) *Console {
	return &Console{host: h, out: out}
}

// Run 逐行读取命令直到输入结束或 quit
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.printf("🎲 语言大富翁，输入 help 查看命令\n")
	scanner := bufio.NewScanner(in)
	for {
		c.printf("> ")
		if !scanner.Scan() {
			c.printf("\n")
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := c.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			c.printf("✗ %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Exec 执行一行命令
func (c *Console) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	eng := c.host.Engine()

	switch cmd {
	case "help":
		c.printf("%s\n", helpText)
		return nil
	case "quit", "exit":
		return errQuit
	case "new":
		names := args
		// new <人数> 时随机起名
		if len(args) == 1 {
			if n, err := strconv.Atoi(args[0]); err == nil && n > 0 && n <= 8 {
				names = generateNicknames(n)
			}
		}
		s, err := eng.CreateSession(ctx, c.host.BoardID(), names)
		if err != nil {
			return err
		}
		c.current = s.ID
		c.printf("对局 %s 已创建\n", s.ID)
		c.printState(s)
		return nil
	case "resume":
		if len(args) != 1 {
			return errors.New("用法: resume <会话ID>")
		}
		s, err := eng.Resume(ctx, args[0])
		if err != nil {
			return err
		}
		c.current = s.ID
		c.printState(s)
		return nil
	case "use":
		if len(args) != 1 {
			return errors.New("用法: use <会话ID>")
		}
		s, err := eng.GetSessionState(args[0])
		if err != nil {
			return err
		}
		c.current = s.ID
		c.printState(s)
		return nil
	case "rank":
		return c.printRank(ctx, args)
	case "sessions":
		return c.printSessions(ctx)
	case "history":
		if len(args) != 1 {
			return errors.New("用法: history <玩家>")
		}
		return c.printHistory(ctx, args[0])
	case "delete":
		if len(args) != 1 {
			return errors.New("用法: delete <会话ID>")
		}
		if err := c.host.DeleteSession(ctx, args[0]); err != nil {
			return err
		}
		if c.current == args[0] {
			c.current = ""
		}
		c.printf("对局 %s 已删除\n", args[0])
		return nil
	}

	if c.current == "" {
		return errors.New("还没有对局，先用 new 创建")
	}
	s, err := eng.GetSessionState(c.current)
	if err != nil {
		return err
	}
	holder := 0
	if p := s.CurrentPlayer(); p != nil {
		holder = p.ID
	}

	var res engine.Result
	switch cmd {
	case "state":
		c.printState(s)
		return nil
	case "flush":
		if err := eng.Flush(ctx, c.current); err != nil {
			return err
		}
		c.printf("历程已写入\n")
		return nil
	case "roll":
		n, err := intArg(args, 0, "用法: roll <点数>")
		if err != nil {
			return err
		}
		res, err = eng.RollDice(ctx, c.current, holder, n)
		if err != nil {
			return err
		}
	case "path":
		if len(args) != 1 || (args[0] != "main" && args[0] != "alt") {
			return errors.New("用法: path main|alt")
		}
		res, err = eng.ChoosePath(ctx, c.current, holder, args[0] == "alt")
		if err != nil {
			return err
		}
	case "option":
		if len(args) != 1 {
			return errors.New("用法: option <选项>")
		}
		opt, err := game.ParseNodeOption(args[0])
		if err != nil {
			return err
		}
		res, err = eng.ChooseNodeOption(ctx, c.current, holder, opt)
		if err != nil {
			return err
		}
	case "answer":
		res, err = eng.SubmitChallengeAnswer(ctx, c.current, strings.Join(args, " "))
		if err != nil {
			return err
		}
	case "forfeit":
		res, err = eng.ForfeitChallenge(ctx, c.current)
		if err != nil {
			return err
		}
	case "card":
		card, err := parseCard(args)
		if err != nil {
			return err
		}
		res, err = eng.ScanCard(ctx, c.current, holder, card)
		if err != nil {
			return err
		}
	case "ack":
		res, err = eng.Acknowledge(ctx, c.current, holder)
		if err != nil {
			return err
		}
	case "bankrupt":
		id, err := intArg(args, 0, "用法: bankrupt <玩家ID>")
		if err != nil {
			return err
		}
		res, err = eng.DeclareBankruptcy(ctx, c.current, id)
		if err != nil {
			return err
		}
	case "abandon":
		res, err = eng.Abandon(ctx, c.current)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("未知命令 %q，输入 help 查看命令", cmd)
	}

	c.printResult(res)
	return nil
}

func intArg(args []string, i int, usage string) (int, error) {
	if len(args) <= i {
		return 0, errors.New(usage)
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, errors.New(usage)
	}
	return n, nil
}

func parseCard(args []string) (game.Card, error) {
	if len(args) == 0 {
		return game.Card{}, errors.New("用法: card <动作> [数值] [目标]")
	}
	value, target := "", 0
	if len(args) > 1 {
		value = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return game.Card{}, fmt.Errorf("目标玩家必须是数字: %w", err)
		}
		target = n
	}
	return game.NewCard(args[0], value, target)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printResult(res engine.Result) {
	for _, r := range res.Outcome.Records {
		c.printf("  · %s\n", r.Description)
	}
	for _, f := range res.Outcome.Faults {
		c.printf("  ⚠ 地图数据异常: %v\n", f)
	}
	if res.JournalErr != nil {
		c.printf("  ⚠ 历程写入失败，稍后可用 flush 重试: %v\n", res.JournalErr)
	}
	c.printState(res.Session)
}

func (c *Console) printState(s game.Session) {
	for _, p := range s.Players {
		mark := " "
		if p.IsCurrentTurn {
			mark = "▶"
		}
		extra := ""
		if !p.Active() {
			extra = " [破产]"
		} else if !p.Pause.Empty() {
			extra = fmt.Sprintf(" [暂停: %s]", p.Pause)
		}
		if p.Shortcut.UnlockedForNextMove {
			extra += " [捷径]"
		}
		c.printf("%s %d %-6s 位置 %-4s 圈数 %d 货币 %d%s\n",
			mark, p.ID, p.Name, p.CurrentNodeID, p.LapCount, p.Currency, extra)
	}

	if s.Status != game.StatusInProgress {
		if s.Winner != nil {
			if w := s.Player(s.Winner.PlayerID); w != nil {
				c.printf("🏆 %s 获胜（%s）\n", w.Name, s.Winner.Reason)
				return
			}
		}
		c.printf("对局已结束（%s）\n", s.Status)
		return
	}

	name := ""
	if p := s.CurrentPlayer(); p != nil {
		name = p.Name
	}
	switch s.Phase {
	case game.PhaseAwaitingRoll:
		c.printf("轮到 %s：roll <点数> 或 card ...\n", name)
	case game.PhaseAwaitingPathChoice:
		if pm := s.PendingMove; pm != nil {
			c.printf("%s 可以选择路线：main → %s，alt → %s\n", name, pm.Primary.Destination, pm.Alternate.Destination)
		}
	case game.PhaseAwaitingNodeChoice:
		opts := make([]string, len(s.NodeOptions))
		for i, o := range s.NodeOptions {
			opts[i] = o.String()
		}
		c.printf("%s 请选择：option %s\n", name, strings.Join(opts, " | "))
	case game.PhaseChallengePending:
		if ch := s.Challenge; ch != nil {
			c.printf("挑战（%s，第 %d 轮）：%s\n", ch.Kind, ch.Turns+1, ch.Prompt.Text)
		}
	case game.PhaseAwaitingAcknowledge:
		c.printf("%s 在机会格：card ... 或 ack\n", name)
	}
}

func (c *Console) printRank(ctx context.Context, args []string) error {
	lb := c.host.Leaderboard()
	if lb == nil {
		return errors.New("排行榜需要 Redis")
	}
	kind := storage.LeaderboardTotal
	if len(args) > 0 {
		kind = storage.LeaderboardKind(args[0])
	}
	entries, err := lb.GetLeaderboard(ctx, kind, 10)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.printf("排行榜还是空的\n")
		return nil
	}
	for _, e := range entries {
		c.printf("%2d. %-8s %5d 分  胜 %d  胜率 %.0f%%\n", e.Rank, e.PlayerName, e.Score, e.Wins, e.WinRate)
	}
	return nil
}

func (c *Console) printSessions(ctx context.Context) error {
	store := c.host.Snapshots()
	if store == nil {
		return errors.New("恢复对局需要 Redis")
	}
	ids, err := store.SessionIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.printf("没有可恢复的对局\n")
		return nil
	}
	slices.Sort(ids)
	for _, id := range ids {
		mark := " "
		if id == c.current {
			mark = "▶"
		}
		c.printf("%s %s\n", mark, id)
	}
	return nil
}

func (c *Console) printHistory(ctx context.Context, name string) error {
	rj := c.host.RedisJournal()
	if rj == nil {
		return errors.New("对局历史需要 Redis")
	}
	ids, err := rj.PlayerSessions(ctx, name, 10)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.printf("%s 还没有完成的对局\n", name)
		return nil
	}
	for _, id := range ids {
		hist, err := rj.Load(ctx, id)
		if err != nil || hist.Final == nil {
			c.printf("  %s\n", id)
			continue
		}
		result := "负"
		if w := hist.Final.Winner; w != nil {
			for _, p := range hist.Final.Players {
				if p.ID == w.PlayerID && p.Name == name {
					result = "胜"
				}
			}
		}
		c.printf("  %s  %s  %s\n", hist.Final.EndedAt.Local().Format("2006-01-02 15:04"), result, id)
	}
	return nil
}
