// Package sqsqueue carries manual jobs over Amazon SQS.
//
// Consumer long-polls a queue with a configurable number of listeners and
// hands every message body to a Handler. A message is deleted only when the
// handler returns nil; otherwise it becomes visible again after the
// visibility timeout and is redelivered. Producer sends the job envelope
// {"manual":{"id":...}}, adding FIFO group and deduplication ids when the
// queue name ends in ".fifo".
package sqsqueue
