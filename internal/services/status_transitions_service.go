package services

import "mamastoria/internal/models"

// Допустимые переходы статуса задачи генерации черновика.
// Генератор может пропускать промежуточные статусы.
var DraftJobTransitions = map[string]map[string]bool{
	models.DraftJobPending:    {models.DraftJobQueued: true, models.DraftJobProcessing: true, models.DraftJobCompleted: true, models.DraftJobFailed: true},
	models.DraftJobQueued:     {models.DraftJobProcessing: true, models.DraftJobCompleted: true, models.DraftJobFailed: true},
	models.DraftJobProcessing: {models.DraftJobCompleted: true, models.DraftJobFailed: true},
	models.DraftJobCompleted:  {}, // финал
	models.DraftJobFailed:     {}, // финал; повтор через новый generate-draft
}

func canTransition(current, to string, table map[string]map[string]bool) bool {
	if current == "" {
		// в БД пусто: разрешаем любой стартовый статус
		return true
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}
