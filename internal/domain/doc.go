// Package domain содержит основные типы предметной области.
//
// Включает:
//   - document.go — Document и категории классификации
//   - state.go    — WorkflowState и узлы конечного автомата
//   - status.go   — статусы run и документов
//   - review.go   — решения человека при ручной проверке
//
// Domain не зависит от инфраструктуры (БД, MQ, LLM) —
// только чистые типы и их инварианты.
package domain
