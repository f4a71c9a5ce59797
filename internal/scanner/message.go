package scanner

import (
	"fmt"

	"github.com/avelory/steamflipper/internal/domain"
	"github.com/avelory/steamflipper/internal/platform/steam"
)

func riskBadge(level domain.RiskLevel) string {
	switch level {
	case domain.RiskLow:
		return "🟢"
	case domain.RiskMedium:
		return "🟡"
	default:
		return "🔴"
	}
}

// flipMessage formats the notification for a profitable flip. The body uses
// Telegram HTML; the Discord sender strips the tags.
func flipMessage(appID int, rec domain.Record) (title, body string) {
	title = fmt.Sprintf("💰 %s", rec.ItemName)
	body = fmt.Sprintf(
		"%s Risk: <b>%s</b>\n"+
			"💳 Buy: %.2f\n"+
			"💸 Sell: %.2f\n"+
			"🤑 <b>Profit: +%.2f (%.2f%%)</b>\n"+
			"📦 Volume: %d\n"+
			"%s",
		riskBadge(rec.RiskLevel), rec.RiskLevel,
		rec.BuyPrice,
		rec.SellPrice,
		rec.NetProfit, rec.ProfitPct*100,
		rec.Volume,
		steam.ListingURL(appID, rec.ItemName),
	)
	return title, body
}
