package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"toex-backend/internal/models"
	"toex-backend/internal/repository"
)

const importBatchSize = 50

// Pool consumes question-import jobs from the Redis queue. Jobs are locked
// with SetNX so a job queued twice is only processed once.
type Pool struct {
	redis        *redis.Client
	jobRepo      *repository.JobRepo
	questionRepo *repository.QuestionRepo
	workerCount  int
	stopChan     chan struct{}
}

func NewPool(redisClient *redis.Client, jobRepo *repository.JobRepo, questionRepo *repository.QuestionRepo, workerCount int) *Pool {
	return &Pool{
		redis:        redisClient,
		jobRepo:      jobRepo,
		questionRepo: questionRepo,
		workerCount:  workerCount,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{"queue:question-import"}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		// Parse job
		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "question-import":
			processErr = p.processImport(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.jobRepo.UpdateStatus(ctx, job.ID, "completed")
		}

		// Release lock
		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processImport(ctx context.Context, job *models.Job) error {
	var config models.QuestionImportRequest
	if err := json.Unmarshal(job.ConfigJSON, &config); err != nil {
		return fmt.Errorf("failed to parse job config: %w", err)
	}

	questions := make([]models.Question, 0, len(config.Questions))
	for i, raw := range config.Questions {
		q, err := parseQuestion(raw)
		if err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, *q)
	}

	total := len(questions)
	inserted := 0
	for start := 0; start < total; start += importBatchSize {
		end := start + importBatchSize
		if end > total {
			end = total
		}

		n, err := p.questionRepo.InsertBatch(ctx, config.Part, questions[start:end])
		if err != nil {
			return fmt.Errorf("failed to insert batch at offset %d: %w", start, err)
		}
		inserted += n

		p.publish(ctx, job, models.WSMessage{
			Type: "import_progress",
			Payload: models.ImportProgress{
				JobID:    job.ID,
				Part:     config.Part,
				Inserted: inserted,
				Total:    total,
			},
		})
	}

	p.publish(ctx, job, models.WSMessage{
		Type: "import_completed",
		Payload: models.ImportCompleted{
			JobID:    job.ID,
			Part:     config.Part,
			Inserted: inserted,
		},
	})

	log.Printf("Job %s: imported %d questions into part %d", job.ID, inserted, config.Part)
	return nil
}

func parseQuestion(raw json.RawMessage) (*models.Question, error) {
	var in struct {
		Question     string          `json:"question"`
		Choices      json.RawMessage `json:"choices"`
		CorrectIndex int             `json:"correct_index"`
		Explanation  *string         `json:"explanation"`
		GrammarPoint *string         `json:"grammar_point"`
		Difficulty   string          `json:"difficulty"`
		PassageID    *string         `json:"passage_id"`
		PassageTitle *string         `json:"passage_title"`
		Passage      *string         `json:"passage"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("invalid question payload: %w", err)
	}

	if in.Question == "" {
		return nil, fmt.Errorf("question text is required")
	}

	var choices []string
	if err := json.Unmarshal(in.Choices, &choices); err != nil || len(choices) < 2 {
		return nil, fmt.Errorf("choices must be an array of at least 2 strings")
	}
	if in.CorrectIndex < 0 || in.CorrectIndex >= len(choices) {
		return nil, fmt.Errorf("correct_index %d out of range", in.CorrectIndex)
	}

	difficulty := in.Difficulty
	switch difficulty {
	case "easy", "medium", "hard":
	case "":
		difficulty = "medium"
	default:
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}

	return &models.Question{
		Question:     in.Question,
		ChoicesJSON:  in.Choices,
		CorrectIndex: in.CorrectIndex,
		Explanation:  in.Explanation,
		GrammarPoint: in.GrammarPoint,
		Difficulty:   difficulty,
		PassageID:    in.PassageID,
		PassageTitle: in.PassageTitle,
		Passage:      in.Passage,
	}, nil
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if job.RetryCount < 3 {
		// Re-queue with backoff
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), "queue:question-import", string(jobBytes))
		})
	} else {
		// Max retries reached
		log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		p.publish(ctx, job, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				JobID:        job.ID,
				ErrorCode:    "JOB_FAILED",
				ErrorMessage: errMsg,
			},
		})
	}
}

func (p *Pool) publish(ctx context.Context, job *models.Job, msg models.WSMessage) {
	data, _ := json.Marshal(msg)
	p.redis.Publish(ctx, fmt.Sprintf("user_updates:%s", job.UserID.String()), string(data))
}
