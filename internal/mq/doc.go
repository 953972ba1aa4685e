// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queues, bindings
//   - publisher.go  — публикация событий workflow
//
// Типы сообщений:
//   - review.requested — run приостановлен, документы ждут ручной проверки
//   - run.finished     — run завершён (COMPLETED или FAILED)
//
// Брокер необязателен: при недоступном RabbitMQ workflow работает
// без публикации событий, engine получает nil Publisher.
package mq
