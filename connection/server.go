package connection

import (
	"log"

	authcontroller "todoapp/controller/auth"
	taskcontroller "todoapp/controller/task"
	"todoapp/feed"
	"todoapp/scheduler"
	"todoapp/viewmodel"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func StartServer() {
	router := gin.Default()

	fb, err := FBConnection()
	if err != nil {
		log.Fatalf("Failed to initialize Firestore client: %v", err)
	}

	f := feed.NewFirestore(fb)
	sched := scheduler.New(scheduler.LogNotifier{})
	registry := viewmodel.NewRegistry(f, sched)
	defer registry.Close()
	defer sched.Stop()

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	router.Use(cors.Default())

	authcontroller.SignUpController(router, fb)
	authcontroller.SignInController(router, fb)
	authcontroller.RefreshTokenController(router, fb)
	authcontroller.SignOutController(router, fb, registry)
	taskcontroller.TaskController(router, registry)
	taskcontroller.CommentController(router, f)

	router.Run()
}
