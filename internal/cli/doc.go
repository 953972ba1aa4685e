// Package cli содержит команды инструмента conveyor.
//
// Команды:
//   - run    — запуск или возобновление batch-обработки каталога PDF
//   - status — состояние thread'а по последнему checkpoint'у
//   - review — подача решений ручной проверки
//   - reset  — сброс сохранённого состояния thread'а
//   - cache  — статистика и очистка content cache
//
// Коды возврата: 0 — run завершён или ждёт ручной проверки;
// ненулевой — run упал либо недоступно хранилище.
package cli
