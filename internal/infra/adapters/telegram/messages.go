package telegram

import "telegram-course-access/internal/domain/model"

// User-facing texts. The storefront audience is Romanian-speaking.
const (
	msgAskForToken = "Trimite-mi linkul sau codul de acces primit pe pagina de mulțumire ca să îți pot confirma plata."
	msgConfirmed   = "Acces confirmat ✅\nAi acces la cursul RELAȚIA 360. Alege din meniu ce vrei să deschizi:"
	msgFlood       = "Prea multe mesaje. Te rog așteaptă puțin și încearcă din nou."

	msgNotFound    = "Nu găsesc plata pentru acest cod. Verifică linkul din pagina de mulțumire sau reîncearcă."
	msgNotPaid     = "Comanda există, dar plata nu este încă confirmată. Reîncearcă în câteva minute."
	msgUsedByOther = "Acest cod a fost deja folosit de alt cont de Telegram."
	msgBadFormat   = "Codul trimis nu pare valid. Copiază-l exact din pagina de mulțumire."
	msgBlocked     = "Prea multe încercări. Contul tău este blocat temporar — reîncearcă peste 10 minute."
	msgInternal    = "A apărut o eroare. Te rog reîncearcă mai târziu."
)

// verifyReplyText maps a verification outcome to the bot's reply.
func verifyReplyText(reason model.VerifyReason) string {
	switch reason {
	case model.VerifyOK:
		return msgConfirmed
	case model.VerifyBadFormat:
		return msgBadFormat
	case model.VerifyNotFound:
		return msgNotFound
	case model.VerifyNotPaid:
		return msgNotPaid
	case model.VerifyTokenUsedByOther:
		return msgUsedByOther
	case model.VerifyBlocked, model.VerifyRateLimit:
		return msgBlocked
	default:
		return msgInternal
	}
}
