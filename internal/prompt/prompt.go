package prompt

import (
	"fmt"
	"strings"
)

const (
	defaultMaxTenderChars   = 24000
	defaultMaxTemplateChars = 8000

	// TruncationMarker is appended to any segment cut at its bound.
	TruncationMarker = "\n[... texte tronqué ...]"
)

const quoteSystemPrompt = `Tu es un expert en rédaction d'offres commerciales et de réponses aux appels d'offres.
Ta tâche est de générer une offre de prix professionnelle et complète en français.

Règles à suivre:
1. Analyser attentivement l'appel d'offre pour identifier les exigences, critères et données clés
2. Utiliser la structure et le style des modèles de rédaction fournis
3. Adapter le contenu aux spécificités de l'appel d'offre
4. Inclure toutes les sections nécessaires (présentation, méthodologie, planning, budget, etc.)
5. Utiliser un ton professionnel et convaincant
6. Structurer clairement avec des titres et sous-titres (utiliser le format Markdown)

Format de sortie:
- Utiliser des titres avec # pour les sections principales
- Utiliser des listes à puces pour les énumérations
- Être précis et concis tout en étant complet`

const analysisSystemPrompt = `Tu es un expert en analyse d'appels d'offres.
Analyse le document fourni et extrais les informations clés de manière structurée.`

// Builder assembles bounded-size prompts. Oversized inputs are a normal
// occurrence, so it truncates instead of failing.
type Builder struct {
	maxTenderChars   int
	maxTemplateChars int
}

func NewBuilder(maxTenderChars, maxTemplateChars int) *Builder {
	if maxTenderChars <= 0 {
		maxTenderChars = defaultMaxTenderChars
	}
	if maxTemplateChars <= 0 {
		maxTemplateChars = defaultMaxTemplateChars
	}
	return &Builder{
		maxTenderChars:   maxTenderChars,
		maxTemplateChars: maxTemplateChars,
	}
}

// BuildQuote composes the quote-generation prompt from the tender text, the
// template texts in selection order, and the optional free-form context.
func (b *Builder) BuildQuote(tenderText string, templateTexts []string, additionalContext string) (systemPrompt, userPrompt string) {
	var sb strings.Builder

	sb.WriteString("APPEL D'OFFRE À ANALYSER:\n\n")
	sb.WriteString(truncate(tenderText, b.maxTenderChars))
	sb.WriteString("\n")

	if len(templateTexts) > 0 {
		sb.WriteString("\n---\nMODÈLES DE RÉDACTION DE RÉFÉRENCE:\n\n")
		for i, tpl := range templateTexts {
			sb.WriteString(fmt.Sprintf("=== Modèle %d ===\n", i+1))
			sb.WriteString(truncate(tpl, b.maxTemplateChars))
			sb.WriteString("\n\n")
		}
	}

	if strings.TrimSpace(additionalContext) != "" {
		sb.WriteString("\nCONTEXTE SUPPLÉMENTAIRE: ")
		sb.WriteString(additionalContext)
		sb.WriteString("\n")
	}

	sb.WriteString("\nGénère maintenant une offre de prix complète et professionnelle en réponse à cet appel d'offre.\n")
	sb.WriteString("L'offre doit être structurée, détaillée et adaptée aux exigences spécifiques mentionnées.")

	return quoteSystemPrompt, sb.String()
}

// BuildAnalysis composes the tender-analysis prompt.
func (b *Builder) BuildAnalysis(tenderText string) (systemPrompt, userPrompt string) {
	var sb strings.Builder
	sb.WriteString(`Analyse l'appel d'offre suivant et extrais:
1. Référence du marché
2. Objet/Titre
3. Date limite de réponse
4. Budget estimé (si mentionné)
5. Critères de sélection principaux
6. Exigences techniques clés
7. Documents à fournir
8. Points d'attention particuliers

DOCUMENT:

`)
	sb.WriteString(truncate(tenderText, b.maxTenderChars))
	sb.WriteString("\n\nFournis une analyse structurée et concise.")

	return analysisSystemPrompt, sb.String()
}

// truncate tail-truncates text at max runes and marks the cut.
func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + TruncationMarker
}
