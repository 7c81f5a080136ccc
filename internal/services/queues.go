package services

// Queue names and task identifiers shared by the API and worker processes.
// Each queue is FIFO on its own; there is no ordering across queues.
const (
	QueueDocumentIndex = "document_index_gen"
	QueueWebPageIndex  = "webpage_index_gen"
	QueueCrawler       = "crawler"

	TaskIndexDocument = "document.create_index"
	TaskIndexWebPage  = "webpage.create_index"
	TaskCrawl         = "webpage.crawl"
)

// Queues lists every queue a worker process should consume.
func Queues() []string {
	return []string{QueueDocumentIndex, QueueWebPageIndex, QueueCrawler}
}
