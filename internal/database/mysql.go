package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"stock-master/internal/portfolio"
	"stock-master/pkg/types"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// Manager 数据库管理器
type Manager struct {
	db     *gorm.DB
	config types.MySQLConfig
}

// SignalRecord 交易信号模型
type SignalRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Ticker          string    `gorm:"type:varchar(20);not null;index:idx_ticker_time" json:"ticker"`
	SignalTime      int64     `gorm:"not null;index:idx_ticker_time" json:"signal_time"`
	Action          string    `gorm:"type:enum('BUY','SELL','HOLD');not null" json:"action"`
	Confidence      string    `gorm:"type:varchar(4);not null" json:"confidence"`
	Score           int       `gorm:"not null" json:"score"`
	CurrentPrice    float64   `gorm:"type:decimal(20,4);not null" json:"current_price"`
	BuyPrice        float64   `gorm:"type:decimal(20,4)" json:"buy_price"`
	SellPrice       float64   `gorm:"type:decimal(20,4)" json:"sell_price"`
	StopLoss        float64   `gorm:"type:decimal(20,4)" json:"stop_loss"`
	TakeProfit      float64   `gorm:"type:decimal(20,4)" json:"take_profit"`
	RiskRewardRatio *float64  `gorm:"type:decimal(10,2)" json:"risk_reward_ratio"`
	PositionPercent float64   `gorm:"type:decimal(5,2)" json:"position_percent"`
	Reasons         string    `gorm:"type:text" json:"reasons"` // 一行一条
	MATrend         string    `gorm:"type:varchar(20)" json:"ma_trend"`
	KDJSignal       string    `gorm:"type:varchar(20)" json:"kdj_signal"`
	Divergence      string    `gorm:"type:varchar(20)" json:"divergence"`
	PatternsSignal  string    `gorm:"type:varchar(10)" json:"patterns_signal"`
	CreatedAt       time.Time `json:"created_at"`
}

func (SignalRecord) TableName() string { return "trading_signals" }

// HoldingRecord 持仓模型
type HoldingRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_ticker" json:"ticker"`
	Name      string    `gorm:"type:varchar(64)" json:"name"`
	Market    string    `gorm:"type:varchar(10)" json:"market"`
	Shares    float64   `gorm:"type:decimal(20,4);not null" json:"shares"`
	AvgCost   float64   `gorm:"type:decimal(20,4);not null" json:"avg_cost"`
	BuyDate   *int64    `json:"buy_date"`
	Notes     string    `gorm:"type:varchar(255)" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (HoldingRecord) TableName() string { return "holdings" }

// TradeRecord 交易记录模型
type TradeRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"type:varchar(20);not null;index:idx_ticker_trade_time" json:"ticker"`
	TradeType string    `gorm:"type:varchar(10);not null" json:"trade_type"`
	Shares    float64   `gorm:"type:decimal(20,4);not null" json:"shares"`
	Price     float64   `gorm:"type:decimal(20,4);not null" json:"price"`
	Amount    float64   `gorm:"type:decimal(20,4)" json:"amount"`
	Fee       float64   `gorm:"type:decimal(20,4)" json:"fee"`
	Signal    string    `gorm:"type:varchar(64)" json:"signal"`
	Notes     string    `gorm:"type:varchar(255)" json:"notes"`
	TradeTime int64     `gorm:"not null;index:idx_ticker_trade_time" json:"trade_time"`
	CreatedAt time.Time `json:"created_at"`
}

func (TradeRecord) TableName() string { return "trades" }

// DailySignalStats 每日信号统计
type DailySignalStats struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Ticker       string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_ticker_date" json:"ticker"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uk_ticker_date" json:"date"`
	TotalSignals int       `gorm:"default:0" json:"total_signals"`
	BuySignals   int       `gorm:"default:0" json:"buy_signals"`
	SellSignals  int       `gorm:"default:0" json:"sell_signals"`
	HoldSignals  int       `gorm:"default:0" json:"hold_signals"`
	AvgScore     *float64  `gorm:"type:decimal(6,2)" json:"avg_score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewManager 创建数据库管理器
func NewManager(config types.MySQLConfig) (*Manager, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.Username,
		config.Password,
		config.Host,
		config.Port,
		config.Database,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	// 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取数据库实例失败: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	manager := &Manager{
		db:     db,
		config: config,
	}

	if err := manager.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	zap.L().Info("✅ MySQL数据库连接成功",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("database", config.Database))

	return manager, nil
}

// AutoMigrate 自动迁移表结构
func (m *Manager) AutoMigrate() error {
	return m.db.AutoMigrate(
		&SignalRecord{},
		&HoldingRecord{},
		&TradeRecord{},
		&DailySignalStats{},
	)
}

// SaveSignal 保存一次评估产生的信号
func (m *Manager) SaveSignal(signal types.TradingSignal, at time.Time) error {
	record := NewSignalRecord(signal, at)
	if err := m.db.Create(&record).Error; err != nil {
		return fmt.Errorf("保存信号失败 %s: %w", signal.Ticker, err)
	}
	return nil
}

// GetSignals 某只股票最近的信号，按时间倒序
func (m *Manager) GetSignals(ticker string, limit int) ([]SignalRecord, error) {
	var records []SignalRecord
	err := m.db.Where("ticker = ?", strings.ToUpper(ticker)).
		Order("signal_time DESC").
		Limit(limit).
		Find(&records).Error

	return records, err
}

// UpdateDailyStats 更新当日信号统计
func (m *Manager) UpdateDailyStats(signal types.TradingSignal, at time.Time) error {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	score := float64(signal.Score)

	var stats DailySignalStats
	result := m.db.Where("ticker = ? AND date = ?", signal.Ticker, day).First(&stats)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		stats = DailySignalStats{
			Ticker:       signal.Ticker,
			Date:         day,
			TotalSignals: 1,
			AvgScore:     &score,
		}
		countAction(&stats, signal.Action)
		return m.db.Create(&stats).Error
	} else if result.Error != nil {
		return result.Error
	}

	updates := map[string]interface{}{
		"total_signals": stats.TotalSignals + 1,
		"avg_score":     runningAverage(stats.AvgScore, stats.TotalSignals, score),
	}
	switch signal.Action {
	case types.ActionBuy:
		updates["buy_signals"] = stats.BuySignals + 1
	case types.ActionSell:
		updates["sell_signals"] = stats.SellSignals + 1
	default:
		updates["hold_signals"] = stats.HoldSignals + 1
	}

	return m.db.Model(&stats).Where("id = ?", stats.ID).Updates(updates).Error
}

// GetDailyStats 最近几天的统计，按日期倒序
func (m *Manager) GetDailyStats(ticker string, days int) ([]DailySignalStats, error) {
	var stats []DailySignalStats
	now := time.Now()
	startDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -days)

	err := m.db.Where("ticker = ? AND date >= ?", strings.ToUpper(ticker), startDate).
		Order("date DESC").
		Find(&stats).Error

	return stats, err
}

// UpsertHolding 按股票代码新增或覆盖持仓
func (m *Manager) UpsertHolding(h types.Holding) error {
	record := NewHoldingRecord(h)
	return m.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "market", "shares", "avg_cost", "buy_date", "notes", "updated_at"}),
	}).Create(&record).Error
}

// GetHolding 查询单个持仓
func (m *Manager) GetHolding(ticker string) (types.Holding, error) {
	return getHolding(m.db, ticker)
}

func getHolding(db *gorm.DB, ticker string) (types.Holding, error) {
	var record HoldingRecord
	err := db.Where("ticker = ?", strings.ToUpper(ticker)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Holding{}, fmt.Errorf("%w: 持仓 %s", ErrNotFound, ticker)
	}
	if err != nil {
		return types.Holding{}, err
	}
	return record.ToHolding(), nil
}

// ListHoldings 全部持仓
func (m *Manager) ListHoldings() ([]types.Holding, error) {
	var records []HoldingRecord
	if err := m.db.Order("ticker").Find(&records).Error; err != nil {
		return nil, err
	}

	holdings := make([]types.Holding, 0, len(records))
	for _, r := range records {
		holdings = append(holdings, r.ToHolding())
	}
	return holdings, nil
}

// DeleteHolding 删除持仓
func (m *Manager) DeleteHolding(ticker string) error {
	result := m.db.Where("ticker = ?", strings.ToUpper(ticker)).Delete(&HoldingRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: 持仓 %s", ErrNotFound, ticker)
	}
	return nil
}

// RecordTrade 写入交易记录并在同一事务里更新持仓，返回更新后的持仓
func (m *Manager) RecordTrade(t types.Trade) (types.Holding, error) {
	var updated types.Holding

	err := m.db.Transaction(func(tx *gorm.DB) error {
		current, err := getHolding(tx, t.Ticker)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if errors.Is(err, ErrNotFound) {
			current = types.Holding{Ticker: strings.ToUpper(t.Ticker)}
		}

		updated, err = portfolio.ApplyTrade(current, t)
		if err != nil {
			return err
		}

		record := NewTradeRecord(t)
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("保存交易记录失败: %w", err)
		}

		holding := NewHoldingRecord(updated)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ticker"}},
			DoUpdates: clause.AssignmentColumns([]string{"shares", "avg_cost", "buy_date", "updated_at"}),
		}).Create(&holding).Error
	})
	if err != nil {
		return types.Holding{}, err
	}

	zap.L().Debug("✅ 交易已记录",
		zap.String("ticker", updated.Ticker),
		zap.String("type", string(t.Type)),
		zap.Float64("shares", updated.Shares))
	return updated, nil
}

// ListTrades 交易记录，ticker 为空时返回全部，按时间倒序
func (m *Manager) ListTrades(ticker string, limit int) ([]types.Trade, error) {
	query := m.db.Order("trade_time DESC").Limit(limit)
	if ticker != "" {
		query = query.Where("ticker = ?", strings.ToUpper(ticker))
	}

	var records []TradeRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	trades := make([]types.Trade, 0, len(records))
	for _, r := range records {
		trades = append(trades, r.ToTrade())
	}
	return trades, nil
}

// Close 关闭数据库连接
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health 检查数据库连接健康状态
func (m *Manager) Health() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// NewSignalRecord 信号转数据库模型
func NewSignalRecord(signal types.TradingSignal, at time.Time) SignalRecord {
	return SignalRecord{
		Ticker:          strings.ToUpper(signal.Ticker),
		SignalTime:      at.Unix(),
		Action:          string(signal.Action),
		Confidence:      string(signal.Confidence),
		Score:           signal.Score,
		CurrentPrice:    signal.CurrentPrice,
		BuyPrice:        signal.BuyPrice,
		SellPrice:       signal.SellPrice,
		StopLoss:        signal.StopLoss,
		TakeProfit:      signal.TakeProfit,
		RiskRewardRatio: signal.RiskRewardRatio,
		PositionPercent: signal.SuggestedPositionPercent,
		Reasons:         strings.Join(signal.ReasonTexts(), "\n"),
		MATrend:         string(signal.MATrend),
		KDJSignal:       string(signal.KDJSignal),
		Divergence:      signal.DivergenceSignal,
		PatternsSignal:  string(signal.PatternsSignal),
	}
}

// ToSignal 数据库模型还原为信号，理由按首个空格拆出标记
func (r SignalRecord) ToSignal() types.TradingSignal {
	signal := types.TradingSignal{
		Ticker:                   r.Ticker,
		CurrentPrice:             r.CurrentPrice,
		Action:                   types.Action(r.Action),
		Confidence:               types.Confidence(r.Confidence),
		Score:                    r.Score,
		BuyPrice:                 r.BuyPrice,
		SellPrice:                r.SellPrice,
		StopLoss:                 r.StopLoss,
		TakeProfit:               r.TakeProfit,
		RiskRewardRatio:          r.RiskRewardRatio,
		SuggestedPositionPercent: r.PositionPercent,
		MATrend:                  types.MAArrangement(r.MATrend),
		KDJSignal:                types.KDJSignal(r.KDJSignal),
		DivergenceSignal:         r.Divergence,
		PatternsSignal:           types.PatternSignal(r.PatternsSignal),
	}

	if r.Reasons != "" {
		for _, line := range strings.Split(r.Reasons, "\n") {
			severity, text, found := strings.Cut(line, " ")
			if !found {
				signal.Reasons = append(signal.Reasons, types.Reason{Text: line})
				continue
			}
			signal.Reasons = append(signal.Reasons, types.Reason{Severity: types.Severity(severity), Text: text})
		}
	}
	return signal
}

// NewHoldingRecord 持仓转数据库模型
func NewHoldingRecord(h types.Holding) HoldingRecord {
	record := HoldingRecord{
		Ticker:  strings.ToUpper(h.Ticker),
		Name:    h.Name,
		Market:  h.Market,
		Shares:  h.Shares,
		AvgCost: h.AvgCost,
		Notes:   h.Notes,
	}
	if !h.BuyDate.IsZero() {
		buyDate := h.BuyDate.Unix()
		record.BuyDate = &buyDate
	}
	return record
}

func (r HoldingRecord) ToHolding() types.Holding {
	h := types.Holding{
		Ticker:  r.Ticker,
		Name:    r.Name,
		Market:  r.Market,
		Shares:  r.Shares,
		AvgCost: r.AvgCost,
		Notes:   r.Notes,
	}
	if r.BuyDate != nil {
		h.BuyDate = time.Unix(*r.BuyDate, 0)
	}
	return h
}

// NewTradeRecord 交易转数据库模型，金额为空时按数量乘价格计算
func NewTradeRecord(t types.Trade) TradeRecord {
	amount := t.Amount
	if amount == 0 {
		amount = t.Shares * t.Price
	}
	tradeTime := t.TradeTime
	if tradeTime.IsZero() {
		tradeTime = time.Now()
	}
	return TradeRecord{
		Ticker:    strings.ToUpper(t.Ticker),
		TradeType: string(t.Type),
		Shares:    t.Shares,
		Price:     t.Price,
		Amount:    amount,
		Fee:       t.Fee,
		Signal:    t.Signal,
		Notes:     t.Notes,
		TradeTime: tradeTime.Unix(),
	}
}

func (r TradeRecord) ToTrade() types.Trade {
	return types.Trade{
		Ticker:    r.Ticker,
		Type:      types.TradeType(r.TradeType),
		Shares:    r.Shares,
		Price:     r.Price,
		Amount:    r.Amount,
		Fee:       r.Fee,
		Signal:    r.Signal,
		Notes:     r.Notes,
		TradeTime: time.Unix(r.TradeTime, 0),
	}
}

func countAction(stats *DailySignalStats, action types.Action) {
	switch action {
	case types.ActionBuy:
		stats.BuySignals++
	case types.ActionSell:
		stats.SellSignals++
	default:
		stats.HoldSignals++
	}
}

// runningAverage 在已有 n 个样本的平均值上追加一个样本
func runningAverage(avg *float64, n int, sample float64) float64 {
	if avg == nil || n <= 0 {
		return sample
	}
	return (*avg*float64(n) + sample) / float64(n+1)
}
