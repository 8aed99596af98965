package app

import (
	"strings"

	"image-analyzer/internal/domain/entity"
)

// termMatches сравнивает без учёта регистра: равенство или вхождение в любую сторону.
func termMatches(term, keyword string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	k := strings.ToLower(strings.TrimSpace(keyword))
	if t == "" || k == "" {
		return false
	}
	return t == k || strings.Contains(t, k) || strings.Contains(k, t)
}

// matchTargets находит все совпадения тегов и объектов с ключевыми словами.
// Учитываются только термины с уверенностью не ниже порога.
// Возвращает множество ключевых слов в порядке конфигурации и список всех совпадений.
func matchTargets(rec entity.AnalysisRecord, keywords []string, threshold float64) ([]string, []entity.TargetMatch) {
	matched := make([]string, 0)
	matches := make([]entity.TargetMatch, 0)

	for _, keyword := range keywords {
		hit := false
		for _, tag := range rec.Tags {
			if tag.Confidence >= threshold && termMatches(tag.Name, keyword) {
				matches = append(matches, entity.TargetMatch{
					Keyword:    keyword,
					Term:       tag.Name,
					Source:     entity.MatchSourceTag,
					Confidence: tag.Confidence,
				})
				hit = true
			}
		}
		for _, obj := range rec.Objects {
			if obj.Confidence >= threshold && termMatches(obj.Label, keyword) {
				matches = append(matches, entity.TargetMatch{
					Keyword:    keyword,
					Term:       obj.Label,
					Source:     entity.MatchSourceObject,
					Confidence: obj.Confidence,
				})
				hit = true
			}
		}
		if hit && !contains(matched, keyword) {
			matched = append(matched, keyword)
		}
	}

	return matched, matches
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
