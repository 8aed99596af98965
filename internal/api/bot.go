package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/go-resty/resty/v2"

	app "image-analyzer/internal/application"
	"image-analyzer/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я бот для анализа изображений.

📸 Отправьте мне фото, и я опишу его и найду целевые объекты.

📋 Команды:
/analyze — запустить пакетный анализ контейнера
/status — состояние анализа
/results — последние результаты
/photo — проверить одно фото
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /analyze запускает анализ всех изображений входного контейнера
2️⃣ По завершении придёт сводка, отчёт сохраняется в хранилище
3️⃣ Фото, отправленное в чат, анализируется сразу

📋 Команды:
/analyze — пакетный анализ
/status — состояние
/results — последние результаты
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото для анализа."
	msgCancelled       = "❌ Операция отменена."
	msgBatchCancelled  = "🛑 Пакетный анализ останавливается, сводка придёт по завершении."
	msgSendPhoto       = "📸 Отправьте фото или используйте /help для справки."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgBatchStarted    = "🚀 Пакетный анализ запущен. Сводка придёт по завершении."
	msgBatchRunning    = "⏳ Пакетный анализ уже выполняется."
	msgNoResults       = "📭 Результатов пока нет. Запустите /analyze."
	msgProcessingError = "⚠️ Не удалось обработать изображение."
)

// Analysis операции сервиса анализа, которые нужны боту
type Analysis interface {
	RunBatch(ctx context.Context) (*app.RunResult, error)
	Cancel() bool
	Status() app.ServiceStatus
	Latest() (*entity.Report, error)
	AnalyzePhoto(ctx context.Context, filename string, data []byte) entity.Outcome
}

// messenger часть BotAPI, которую использует бот
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot представляет Telegram-бота
type Bot struct {
	api      messenger
	updates  func() tgbotapi.UpdatesChannel
	stop     func()
	users    *app.UserService
	analysis Analysis
	http     *resty.Client
	logger   *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, analysis Analysis, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	bot := newBot(api, users, analysis, logger)
	bot.logger.Info("authorized", "account", api.Self.UserName)

	bot.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	bot.stop = api.StopReceivingUpdates
	return bot, nil
}

func newBot(api messenger, users *app.UserService, analysis Analysis, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		users:    users,
		analysis: analysis,
		http:     resty.New(),
		logger:   logger.With("component", "telegram"),
	}
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	updates := b.updates()

	go func() {
		<-ctx.Done()
		b.stop()
	}()

	for update := range updates {
		if update.Message == nil {
			continue
		}

		b.handleMessage(ctx, update.Message)
	}

	return nil
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		b.logger.Error("get user", "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, user)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		if !user.IsBusy() {
			_, _ = b.users.Cancel(ctx, user.ID, chatID)
		}
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "photo":
		if _, err := b.users.BeginPhoto(ctx, user.ID, chatID); err != nil {
			b.logger.Error("set state", "error", err)
		}
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "analyze":
		b.startBatch(ctx, user.ID, chatID)

	case "status":
		b.sendMessage(chatID, formatStatus(b.analysis.Status()))

	case "results":
		report, err := b.analysis.Latest()
		if err != nil {
			b.sendMessage(chatID, msgNoResults)
			return
		}
		b.sendMessage(chatID, formatReport(report))

	case "cancel":
		if user.IsBusy() && b.analysis.Cancel() {
			b.sendMessage(chatID, msgBatchCancelled)
			return
		}
		_, _ = b.users.Cancel(ctx, user.ID, chatID)
		b.sendMessage(chatID, msgCancelled)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// startBatch запускает пакет в фоне и присылает сводку по завершении
func (b *Bot) startBatch(ctx context.Context, userID, chatID int64) {
	if b.analysis.Status().Running {
		b.sendMessage(chatID, msgBatchRunning)
		return
	}
	if _, err := b.users.StartBatch(ctx, userID, chatID); err != nil {
		b.sendMessage(chatID, msgBatchRunning)
		return
	}

	b.sendMessage(chatID, msgBatchStarted)

	go func() {
		result, err := b.analysis.RunBatch(ctx)

		runID := ""
		switch {
		case errors.Is(err, app.ErrRunInProgress):
			b.sendMessage(chatID, msgBatchRunning)
		case err != nil:
			b.logger.Error("batch failed", "error", err)
			b.sendMessage(chatID, fmt.Sprintf("⚠️ Пакетный анализ не выполнен: %v", err))
		default:
			runID = result.Report.Metadata.RunID
			b.sendMessage(chatID, formatRunResult(result))
		}

		if _, err := b.users.FinishBatch(context.Background(), userID, chatID, runID); err != nil {
			b.logger.Error("finish batch", "error", err)
		}
	}()
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("download photo", "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	outcome := b.analysis.AnalyzePhoto(ctx, photo.FileUniqueID+".jpg", imageData)
	b.sendMessage(msg.Chat.ID, formatOutcome(outcome))

	if user.State == entity.StateAwaitingPhoto {
		_, _ = b.users.Cancel(ctx, user.ID, msg.Chat.ID)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	resp, err := b.http.R().SetContext(ctx).Get(fileURL)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode())
	}

	return resp.Body(), nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", "error", err)
	}
}

func formatOutcome(o entity.Outcome) string {
	if o.Failure != nil {
		return fmt.Sprintf("%s\n%s: %s", msgProcessingError, o.Failure.Kind, o.Failure.Message)
	}

	rec := o.Record
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 %s (%.1f%%)\n", rec.Caption, rec.CaptionConfidence*100)

	if len(rec.Tags) > 0 {
		names := make([]string, len(rec.Tags))
		for i, t := range rec.Tags {
			names[i] = t.Name
		}
		fmt.Fprintf(&sb, "🏷 %s\n", strings.Join(names, ", "))
	}
	for _, obj := range rec.Objects {
		fmt.Fprintf(&sb, "📦 %s %.1f%%\n", obj.Label, obj.Confidence*100)
	}

	if rec.HasTargets() {
		fmt.Fprintf(&sb, "🎯 Найдено: %s", strings.Join(rec.MatchedKeywords, ", "))
	} else {
		sb.WriteString("✅ Целевые объекты не обнаружены.")
	}
	return sb.String()
}

func formatReport(r *entity.Report) string {
	m, s := r.Metadata, r.Summary

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Запуск %s\n", m.RunID)
	fmt.Fprintf(&sb, "Изображений: %d, с целями: %d, ошибок: %d\n", m.TotalImages, m.ImagesWithTargets, len(r.Failures))
	fmt.Fprintf(&sb, "Доля обнаружения: %.1f%%\n", s.DetectionRate)
	fmt.Fprintf(&sb, "Средняя уверенность: %.3f\n", s.AvgConfidence)
	fmt.Fprintf(&sb, "Целевые ключевые слова: %s", strings.Join(m.TargetKeywords, ", "))

	for i, rec := range r.Records {
		if i == 3 {
			fmt.Fprintf(&sb, "\n… ещё %d", len(r.Records)-3)
			break
		}
		fmt.Fprintf(&sb, "\n• %s: %s", rec.Filename, rec.Caption)
	}
	return sb.String()
}

func formatRunResult(res *app.RunResult) string {
	var sb strings.Builder
	sb.WriteString("✅ Пакетный анализ завершён\n")
	sb.WriteString(formatReport(res.Report))
	for _, s := range res.Sinks {
		if s.Err != nil {
			fmt.Fprintf(&sb, "\n⚠️ %s: %v", s.Destination, s.Err)
		} else {
			fmt.Fprintf(&sb, "\n💾 %s: %s", s.Destination, s.Location)
		}
	}
	return sb.String()
}

func formatStatus(st app.ServiceStatus) string {
	if st.Running {
		return msgBatchRunning
	}
	if st.LastRunID == "" && st.LastError == "" {
		return msgNoResults
	}

	var sb strings.Builder
	sb.WriteString("💤 Анализ не выполняется.")
	if st.LastRunID != "" {
		fmt.Fprintf(&sb, "\nПоследний запуск: %s, изображений %d, с целями %d",
			st.LastRunID, st.TotalImages, st.WithTargets)
	}
	if st.LastError != "" {
		fmt.Fprintf(&sb, "\nПоследняя ошибка: %s", st.LastError)
	}
	return sb.String()
}
