// Package executor содержит реализации узлов workflow.
//
// Включает:
//   - executor.go — контракт Executor и общие типы
//   - extract.go  — извлечение текста и метаданных из PDF
//   - classify.go — классификация документов
//   - review.go   — применение решений человека (review gate)
//   - report.go   — генерация итогового отчёта
//   - retry.go    — retry внешних вызовов с exponential backoff
//
// Каждый executor обрабатывает batch целиком: ошибки отдельных
// документов локализуются (документ помечается failed, batch
// продолжается), и только ошибки инфраструктуры (кэш, БД)
// прерывают выполнение узла.
//
// Дорогие внешние вызовы мемоизируются в content cache по ключу
// (хэш содержимого, операция, тег модели): повторный вызов для того же
// содержимого не выполняется, в том числе после рестарта процесса.
package executor
