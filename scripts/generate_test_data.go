package main

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/recipebook/internal/config"
	"github.com/recipebook/internal/db"
	"github.com/recipebook/internal/logging"
	"github.com/recipebook/internal/service"
)

type seedRecipe struct {
	Title   string
	Content string
}

var seedRecipes = []seedRecipe{
	{
		Title: "Tomato and egg stir-fry",
		Content: "## Ingredients\n\n- 3 eggs\n- 2 tomatoes\n- 1 spring onion\n- salt, sugar\n\n" +
			"## Method\n\n1. Beat the eggs with a pinch of salt and scramble until just set.\n" +
			"2. Fry the tomato wedges until soft, add a little sugar.\n" +
			"3. Return the eggs, toss together and finish with spring onion.",
	},
	{
		Title: "Garlic butter mushrooms",
		Content: "## Ingredients\n\n- 400g mushrooms\n- 3 cloves garlic\n- 30g butter\n- parsley\n\n" +
			"## Method\n\nBrown the mushrooms in a hot pan, add butter and garlic for the last minute, " +
			"then season and scatter with parsley.",
	},
	{
		Title: "Overnight oats",
		Content: "Mix **50g oats**, 120ml milk and a spoon of yoghurt in a jar. " +
			"Leave in the fridge overnight and top with fruit in the morning.",
	},
}

// 测试数据生成器
func main() {
	cfg := config.Load()
	gdb, err := db.Open(cfg, logging.Gorm(logging.NewNop(), logging.ParseLevel("error")))
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	if err := db.EnsureUser(gdb, "admin", "admin123"); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	page, created, err := seedRecipesPage(gdb)
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
	if created > 0 {
		fmt.Printf("页面: %s (%d 个菜谱)\n", page.Title, created)
	} else {
		fmt.Println("菜谱已存在，跳过创建")
	}
}

// seedRecipesPage creates the home page and a "Recipes" page with a few sample
// recipes. Running it again adds nothing. It returns the recipes page and the
// number of recipes created.
func seedRecipesPage(gdb *gorm.DB) (*db.Page, int, error) {
	pages := service.NewPageService(gdb)
	recipes := service.NewRecipeService(gdb, pages)

	if _, _, err := pages.ResolvePath(nil); err != nil {
		if _, err := pages.Create(service.PageInput{Title: "Home", URLSegment: "home"}); err != nil {
			return nil, 0, fmt.Errorf("create home page: %w", err)
		}
	}

	page, rest, err := pages.ResolvePath([]string{"recipes"})
	if err != nil || len(rest) > 0 {
		page, err = pages.Create(service.PageInput{
			Title:     "Recipes",
			PageType:  db.PageTypeRecipes,
			Content:   "Things we like to cook.",
			SortOrder: 1,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("create recipes page: %w", err)
		}
	}

	existing, err := recipes.ListByPage(page.ID)
	if err != nil {
		return nil, 0, err
	}
	if len(existing) > 0 {
		return page, 0, nil
	}

	for _, seed := range seedRecipes {
		if _, err := recipes.Create(page.ID, service.RecipeInput{Title: seed.Title, Content: seed.Content}); err != nil {
			return nil, 0, fmt.Errorf("create recipe %q: %w", seed.Title, err)
		}
	}
	return page, len(seedRecipes), nil
}
